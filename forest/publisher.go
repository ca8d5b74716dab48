package forest

// Publisher mirrors forest activity to an external sink such as a message
// broker. Implementations must be safe for concurrent use and should not
// block; publish errors are logged and never abort forest operations.
type Publisher interface {
	// PublishMessage mirrors a message put on the bus.
	PublishMessage(forest string, msg Message) error

	// PublishTaskUpdate mirrors a plan task after a status change.
	PublishTaskUpdate(forest string, task TaskItem) error
}

type noopPublisher struct{}

func (noopPublisher) PublishMessage(string, Message) error     { return nil }
func (noopPublisher) PublishTaskUpdate(string, TaskItem) error { return nil }
