package minimizer

import (
	"testing"

	"github.com/metalagman/preserve/internal/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_Cassandra(t *testing.T) {
	t.Parallel()

	inv := Command(Params{
		Project:      "cassandra",
		TargetDir:    "user/ISSUES/cf-6077",
		MinimizerDir: "user/specimin",
		Issue: issue.Issue{
			RootDir: "src/java",
			Package: "org.apache.cassandra.index.sasi.conf",
			Targets: []issue.Target{
				{Method: "getMode(ColumnMetadata, Map<String, String>)", File: "IndexMode.java"},
			},
		},
	})

	assert.Equal(t, "user/specimin", inv.Dir)
	assert.Equal(t, "./gradlew", inv.Name)
	require.Len(t, inv.Args, 2)
	assert.Equal(t, "run", inv.Args[0])
	assert.Equal(t,
		`--args=--outputDirectory "user/ISSUES/cf-6077/output/cassandra/src/main/java"`+
			` --root "user/ISSUES/cf-6077/input/cassandra/src/java/"`+
			` --targetFile "org/apache/cassandra/index/sasi/conf/IndexMode.java"`+
			` --targetMethod "org.apache.cassandra.index.sasi.conf.IndexMode#getMode(ColumnMetadata, Map<String, String>)"`,
		inv.Args[1])
}

func TestCommand_TrailingSlashRootAndCustomBase(t *testing.T) {
	t.Parallel()

	inv := Command(Params{
		Project:      "kafka-sensors",
		TargetDir:    "user/ISSUES/cf-6019",
		MinimizerDir: "user/specimin",
		Issue: issue.Issue{
			RootDir: "src/main/java/",
			Package: "com.fillmore_labs.kafka.sensors.serde.confluent.interop",
			Targets: []issue.Target{
				{Method: "transform(String, byte[])", File: "Avro2Confluent.java"},
				{Method: "close()", File: "Avro2Confluent.java"},
			},
		},
		BaseCmd: []string{"gradle", "--quiet", "run"},
	})

	assert.Equal(t, "gradle", inv.Name)
	assert.Equal(t, []string{"--quiet", "run"}, inv.Args[:2])
	assert.Contains(t, inv.Args[2], `--root "user/ISSUES/cf-6019/input/kafka-sensors/src/main/java/"`)
	assert.Contains(t, inv.Args[2], `--targetFile "com/fillmore_labs/kafka/sensors/serde/confluent/interop/Avro2Confluent.java"`)
	assert.Contains(t, inv.Args[2], `#transform(String, byte[])"`)
	assert.Contains(t, inv.Args[2], `--targetMethod "com.fillmore_labs.kafka.sensors.serde.confluent.interop.Avro2Confluent#close()"`)
}

func TestInvocationString(t *testing.T) {
	t.Parallel()

	inv := Invocation{Name: "./gradlew", Args: []string{"run", `--args=--root "a b"`}}
	assert.Equal(t, `./gradlew run --args='--root "a b"'`, inv.String())
}
