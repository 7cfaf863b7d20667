// Package dispatch implements the streaming response dispatcher: it consumes
// the ordered core.Event sequence of a single run and renders every event
// immediately to an Output Sink (any io.Writer).
//
// Dispatch is a type switch over the closed Event set with an explicit
// default arm that ignores variants the renderer has no rule for. One
// Dispatcher serves exactly one stream; its State is created with it and
// discarded with it.
//
//	d := dispatch.New(os.Stdout)
//	if err := d.Consume(stream); err != nil {
//		return err
//	}
package dispatch
