package common

const (
	RedisStreamPriceUpdate = "crypto.price.update"

	RedisStreamGroup    = "worker-group"
	RedisStreamConsumer = "worker-consumer"

	// RedisStreamPayloadKey is the field holding the JSON body of a stream entry.
	RedisStreamPayloadKey = "payload"
)
