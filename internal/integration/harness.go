//go:build integration

// Package integration provides a testcontainers-backed Firebird server
// for the two live-driver scenarios in the acceptance tests (a simple
// parameterized SELECT round-trip, and a full create/insert/select
// cycle against a real server). It is excluded from ordinary `go test`
// runs by the integration build tag; a concrete driver is still
// required to use it meaningfully, since fbcore itself never speaks
// the wire protocol.
package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Server describes a running containerized Firebird instance.
type Server struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	container testcontainers.Container
}

// DSN-equivalent fields callers need to build a driver-specific
// fbdriver.AttachmentConfig: host/port, database path, user, password.
const (
	defaultUser     = "SYSDBA"
	defaultPassword = "masterkey"
	defaultDatabase = "/firebird/data/integration.fdb"
	containerPort   = "3050/tcp"
)

// StartServer starts a Firebird container and waits for it to accept
// connections on its wire port, mirroring the teacher's own
// testcontainers-based bring-up of its database-under-test.
func StartServer(ctx context.Context, image string) (*Server, error) {
	if image == "" {
		image = "jacobalberty/firebird:3.0"
	}

	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{containerPort},
		Env: map[string]string{
			"FIREBIRD_DATABASE": "integration.fdb",
			"ISC_PASSWORD":      defaultPassword,
		},
		WaitingFor: wait.ForListeningPort(containerPort).WithStartupTimeout(90 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("integration: start firebird container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("integration: container host: %w", err)
	}
	mapped, err := c.MappedPort(ctx, containerPort)
	if err != nil {
		return nil, fmt.Errorf("integration: container port: %w", err)
	}

	return &Server{
		Host:      host,
		Port:      mapped.Int(),
		Database:  defaultDatabase,
		User:      defaultUser,
		Password:  defaultPassword,
		container: c,
	}, nil
}

// Close terminates the container.
func (s *Server) Close(ctx context.Context) error {
	if s.container == nil {
		return nil
	}
	return s.container.Terminate(ctx)
}
