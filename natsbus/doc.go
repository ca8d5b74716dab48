// Package natsbus mirrors forest activity onto NATS subjects so external
// observers (dashboards, loggers, other services) can follow collaborative
// runs. It provides a forest.Publisher backed by a nats.Conn, subscription
// helpers that decode the published events, and an embeddable server for
// local development and tests.
package natsbus
