package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type named struct{}

func (named) String() string { return "NAMED" }

type plain struct{}

func TestObjToString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		obj  any
		want string
	}{
		{"nil", nil, "NIL"},
		{"stringer", named{}, "NAMED"},
		{"string", "encode", "encode"},
		{"pointer to struct", &plain{}, "plain"},
		{"long", "a name longer than twenty characters", "a name longer than t"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, objToString(tt.obj))
		})
	}
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	out := logrus.StandardLogger().Out
	Init(logrus.InfoLevel)
	SetOutput(&buf)
	defer SetOutput(out)

	Debugf(named{}, "hidden %d", 1)
	require.Empty(t, buf.String())

	Infof(named{}, "shown %d", 2)
	require.Contains(t, buf.String(), "|               NAMED|shown 2")
}
