// Package sanitizer normalizes caller-supplied free text before it is
// persisted (cancellation reasons, preference strings).
package sanitizer

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}
