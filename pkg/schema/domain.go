package schema

// EventDecl declares an event a flow publishes or consumes. Payload, when
// present, maps field name to declared type; FlowID names the producing or
// consuming flow.
type EventDecl struct {
	Event   string            `json:"event"`
	Payload map[string]string `json:"payload,omitempty"`
	FlowID  string            `json:"flow_id,omitempty"`
}

// Domain is a named grouping of flows plus its event declarations.
type Domain struct {
	Name      string       `json:"name"`
	Flows     []*FlowGraph `json:"flows,omitempty"`
	Published []EventDecl  `json:"published_events,omitempty"`
	Consumed  []EventDecl  `json:"consumed_events,omitempty"`
}

// FlowByID returns the flow with the given ID, or nil.
func (d *Domain) FlowByID(id string) *FlowGraph {
	for _, f := range d.Flows {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// System is the full set of domains under analysis.
type System struct {
	Domains []*Domain `json:"domains"`
}

// Registries is the immutable snapshot of the shared registries owned by the
// editing layer's configuration store. Validators only read it.
type Registries struct {
	ErrorCodes map[string]bool
	Schemas    map[string]bool
	Models     map[string]bool
}

// NewRegistries builds a Registries from plain slices.
func NewRegistries(errorCodes, schemas, models []string) *Registries {
	r := &Registries{
		ErrorCodes: make(map[string]bool, len(errorCodes)),
		Schemas:    make(map[string]bool, len(schemas)),
		Models:     make(map[string]bool, len(models)),
	}
	for _, c := range errorCodes {
		r.ErrorCodes[c] = true
	}
	for _, s := range schemas {
		r.Schemas[s] = true
	}
	for _, m := range models {
		r.Models[m] = true
	}
	return r
}

// HasErrorCode reports whether code is registered. A nil receiver skips the
// check (no registry supplied).
func (r *Registries) HasErrorCode(code string) bool {
	return r == nil || r.ErrorCodes[code]
}

// HasSchema reports whether name is a registered schema.
func (r *Registries) HasSchema(name string) bool {
	return r == nil || r.Schemas[name]
}

// HasModel reports whether name is a registered model.
func (r *Registries) HasModel(name string) bool {
	return r == nil || r.Models[name]
}
