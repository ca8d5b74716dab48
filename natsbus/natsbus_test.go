package natsbus

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentforest/agent"
	"github.com/hupe1980/agentforest/forest"
	"github.com/hupe1980/agentforest/internal/testutil"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := StartServer(ServerConfig{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	require.NotEmpty(t, srv.ClientURL())
	return srv
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "agentforest.f1.messages", SubjectMessages("f1"))
	assert.Equal(t, "agentforest.f1.tasks", SubjectTasks("f1"))
}

func TestPublisher_RoundTrip(t *testing.T) {
	srv := startTestServer(t)

	pub, err := Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	sub, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(sub.Close)

	messages := make(chan forest.Message, 1)
	tasks := make(chan forest.TaskItem, 1)

	_, err = SubscribeMessages(sub, SubjectAllMessages, func(_ string, msg forest.Message) { messages <- msg }, nil)
	require.NoError(t, err)
	_, err = SubscribeTasks(sub, SubjectTasks("f1"), func(_ string, task forest.TaskItem) { tasks <- task }, nil)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	msg := forest.NewMessage("a", "b", "hello", map[string]any{"k": "v"})
	require.NoError(t, pub.PublishMessage("f1", msg))
	require.NoError(t, pub.PublishTaskUpdate("f1", forest.TaskItem{ID: "t1", Status: forest.TaskCompleted, Result: "r"}))
	require.NoError(t, pub.Flush())

	select {
	case got := <-messages:
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, "hello", got.Content)
		assert.Equal(t, "v", got.Metadata["k"])
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	select {
	case got := <-tasks:
		assert.Equal(t, "t1", got.ID)
		assert.Equal(t, forest.TaskCompleted, got.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for task update")
	}
}

func TestSubscribe_ReportsUndecodablePayloads(t *testing.T) {
	srv := startTestServer(t)

	conn, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	errs := make(chan error, 1)
	_, err = SubscribeMessages(conn, SubjectMessages("f"), func(string, forest.Message) {}, func(err error) { errs <- err })
	require.NoError(t, err)

	require.NoError(t, conn.Publish(SubjectMessages("f"), []byte("not json")))
	require.NoError(t, conn.Flush())

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for decode error")
	}
}

func TestPublisher_MirrorsForestActivity(t *testing.T) {
	srv := startTestServer(t)

	conn, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	messages := make(chan forest.Message, 4)
	_, err = SubscribeMessages(conn, SubjectMessages("mirror"), func(_ string, msg forest.Message) { messages <- msg }, nil)
	require.NoError(t, err)
	require.NoError(t, conn.Flush())

	pub := NewPublisher(conn)
	f := forest.New("mirror", func(o *forest.Options) { o.Publisher = pub })

	for _, name := range []string{"A", "B"} {
		a, err := agent.New(name, testutil.NewScriptedModel())
		require.NoError(t, err)
		require.NoError(t, f.AddAgent(name, a))
	}

	_, err = f.SendMessage("A", "", "broadcast over nats")
	require.NoError(t, err)
	require.NoError(t, pub.Flush())

	select {
	case got := <-messages:
		assert.True(t, got.IsBroadcast())
		assert.Equal(t, "broadcast over nats", got.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for mirrored message")
	}

	// Closing a borrowed connection is a no-op.
	require.NoError(t, pub.Close())
	assert.False(t, conn.IsClosed())

}
