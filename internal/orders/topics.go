package orders

const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status.changed"
)

// Partition key = display id, so all events of one order keep their order.
func PartitionKey(displayID string) []byte { return []byte(displayID) }
