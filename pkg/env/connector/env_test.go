package connector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sixstep/pkg/remote"
	"github.com/robotalks/sixstep/pkg/remote/mqtt"
)

func TestNewConnector(t *testing.T) {
	testCases := []struct {
		url    string
		expect interface{}
	}{
		{"mqtt://localhost:1883/sixstep/", &mqtt.Connector{}},
		{"ws://localhost:8080", &remote.DirectConnector{}},
		{"tcp://localhost:7070", &remote.DirectConnector{}},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			conf := NewConfig()
			conf.RegistryURL = tc.url
			c, err := conf.NewConnector()
			require.NoError(t, err)
			require.IsType(t, tc.expect, c)
		})
	}

	conf := NewConfig()
	conf.RegistryURL = "http://localhost"
	_, err := conf.NewConnector()
	require.Error(t, err)
}

func TestDirectConnectorRef(t *testing.T) {
	conf := NewConfig()
	conf.RegistryURL = "tcp://bench:7070"
	c, err := conf.NewConnector()
	require.NoError(t, err)
	require.Equal(t, remote.ControllerRef{Type: "tcp", ID: "bench:7070"}, c.(*remote.DirectConnector).Ref)
}
