package events

import "context"

// Instrumented wraps p so that observe sees the outcome of every publish.
func Instrumented(p Publisher, observe func(key string, err error)) Publisher {
	return &instrumented{Publisher: p, observe: observe}
}

type instrumented struct {
	Publisher
	observe func(string, error)
}

func (i *instrumented) Publish(ctx context.Context, key string, event any) error {
	err := i.Publisher.Publish(ctx, key, event)
	if i.observe != nil {
		i.observe(key, err)
	}
	return err
}
