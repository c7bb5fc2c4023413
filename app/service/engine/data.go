package engine

import "gmtracker/app/service/history"

// generationState is the engine's view of one in-flight generation. Built at
// the start hook, consumed by however many assembly hooks the API family
// fires, discarded when the next generation starts.
type generationState struct {
	suppressed bool
	history    history.Map
	// preInjected marks that the pre-assembly adapter already spliced the
	// historical context in; post-assembly adapters then must not inject a
	// second copy.
	preInjected bool
}
