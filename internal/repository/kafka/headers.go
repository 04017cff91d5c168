package kafka

import "github.com/segmentio/kafka-go"

// headerCarrier adapts kafka message headers to an otel TextMapCarrier.
type headerCarrier struct{ hs *[]kafka.Header }

func (c headerCarrier) Get(k string) string {
	for _, h := range *c.hs {
		if h.Key == k {
			return string(h.Value)
		}
	}
	return ""
}

// Set replaces an existing header with the same key.
func (c headerCarrier) Set(k, v string) {
	for i := range *c.hs {
		if (*c.hs)[i].Key == k {
			(*c.hs)[i].Value = []byte(v)
			return
		}
	}
	*c.hs = append(*c.hs, kafka.Header{Key: k, Value: []byte(v)})
}

func (c headerCarrier) Keys() []string {
	ks := make([]string, 0, len(*c.hs))
	for _, h := range *c.hs {
		ks = append(ks, h.Key)
	}
	return ks
}
