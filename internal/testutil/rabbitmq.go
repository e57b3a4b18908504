package testutil

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartRabbitMQ launches a throwaway RabbitMQ container and returns an open
// AMQP connection to it. Both the connection and the container are torn down
// through t.Cleanup.
func StartRabbitMQ(t *testing.T) *amqp.Connection {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start rabbitmq container: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		_ = container.Terminate(stopCtx)
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5672")
	if err != nil {
		t.Fatalf("mapped amqp port: %v", err)
	}

	conn := dialAMQP(ctx, t, "amqp://"+host+":"+port.Port()+"/")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// dialAMQP retries for a bit after the port opens; the broker accepts TCP
// before it is ready to speak AMQP.
func dialAMQP(ctx context.Context, t *testing.T, url string) *amqp.Connection {
	t.Helper()

	deadline := time.Now().Add(30 * time.Second)
	var lastErr error
	for {
		conn, err := amqp.DialConfig(url, amqp.Config{
			Dial: amqp.DefaultDial(5 * time.Second),
		})
		if err == nil {
			return conn
		}
		lastErr = err

		if time.Now().After(deadline) {
			t.Fatalf("timeout dialing rabbitmq: %v", lastErr)
		}

		select {
		case <-ctx.Done():
			t.Fatalf("context cancelled dialing rabbitmq: %v", ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}
}
