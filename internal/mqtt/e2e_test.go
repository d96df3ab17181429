//go:build e2e

package mqtt

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nullptr-deref/ms5540c-library-ru/internal/config"
	"github.com/nullptr-deref/ms5540c-library-ru/internal/types"
)

const mqttPort = nat.Port("1883/tcp")

func startBroker(t *testing.T) (string, int) {
	t.Helper()
	ctx := context.Background()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2",
			Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
			ExposedPorts: []string{string(mqttPort)},
			WaitingFor:   wait.ForListeningPort(mqttPort).WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start mosquitto container")
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, mqttPort)
	require.NoError(t, err)
	return host, port.Int()
}

func TestE2E_PublishTelemetry(t *testing.T) {
	host, port := startBroker(t)

	sub := paho.NewClient(paho.NewClientOptions().
		AddBroker("tcp://" + host + ":" + strconv.Itoa(port)).
		SetClientID("e2e-sub"))
	tok := sub.Connect()
	require.True(t, tok.WaitTimeout(10*time.Second))
	require.NoError(t, tok.Error())
	t.Cleanup(func() { sub.Disconnect(100) })

	got := make(chan types.Telemetry, 1)
	tok = sub.Subscribe(TelemetryTopic("e2e"), 1, func(_ paho.Client, m paho.Message) {
		var tel types.Telemetry
		if err := json.Unmarshal(m.Payload(), &tel); err == nil {
			got <- tel
		}
	})
	require.True(t, tok.WaitTimeout(10*time.Second))
	require.NoError(t, tok.Error())

	c, err := NewClient(config.Config{MQTTBroker: host, MQTTPort: port, MQTTClientID: "e2e-pub"}, discard())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(c.Disconnect)

	require.True(t, c.IsConnected())

	temp, press, seq := 24.8, 994.1, 7
	require.NoError(t, c.PublishTelemetry(types.Telemetry{
		StationID:   "e2e",
		Temperature: &temp,
		Pressure:    &press,
		Sequence:    &seq,
	}))

	select {
	case tel := <-got:
		assert.Equal(t, "e2e", tel.StationID)
		require.NotNil(t, tel.Pressure)
		assert.Equal(t, 994.1, *tel.Pressure)
		assert.Equal(t, 7, *tel.Sequence)
	case <-time.After(10 * time.Second):
		t.Fatal("telemetry not received")
	}
}
