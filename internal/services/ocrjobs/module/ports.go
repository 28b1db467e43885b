package module

import (
	dom "ocrjobs/internal/services/ocrjobs/domain"
	"ocrjobs/internal/services/ocrjobs/service"
)

// Ports holds the ports exposed by the ocrjobs module
type Ports struct {
	Submit dom.SubmitPort
	Worker dom.WorkerPort
	Exec   dom.ExecutePort
	Health dom.HealthPort
	Prefs  *service.Prefs
}

// Injected are collaborators the caller supplies through modkit.WithPorts.
// Zero fields fall back to the real adapters built from Options.
type Injected struct {
	Notifier dom.Notifier
	Local    dom.Recognizer
	Cloud    dom.Recognizer
	Splitter dom.Splitter
	Queue    dom.JobQueue
}
