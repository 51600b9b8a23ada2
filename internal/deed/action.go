package deed

// Action describes a deed that runs a local function.
type Action struct {
	Name   string
	Action ActionFunc
}

// DeedName implements Deed.
func (d Action) DeedName() string { return d.Name }

// DeedType implements Deed.
func (d Action) DeedType() Type { return TypeAction }

// ActionBuilder configures an Action.
type ActionBuilder struct {
	props Action
	err   error
}

// NewAction starts an action deed called name.
func NewAction(name string) *ActionBuilder {
	b := &ActionBuilder{props: Action{Name: name}}
	if name == "" {
		b.err = missing(name, "name", "non-empty string")
	}
	return b
}

// ThatDoes sets the action function.
func (b *ActionBuilder) ThatDoes(fn ActionFunc) *ActionBuilder {
	if fn == nil {
		b.fail(invalid(b.props.Name, "action", fn, "function"))
		return b
	}
	b.props.Action = fn
	return b
}

// ThenDoes is an alias of ThatDoes.
func (b *ActionBuilder) ThenDoes(fn ActionFunc) *ActionBuilder {
	return b.ThatDoes(fn)
}

// Err returns the first configuration error, if any.
func (b *ActionBuilder) Err() error { return b.err }

// Properties returns a snapshot of the configured properties.
func (b *ActionBuilder) Properties() Action { return b.props }

// Build returns the immutable descriptor.
func (b *ActionBuilder) Build() (Action, error) {
	if b.err != nil {
		return Action{}, b.err
	}
	if b.props.Action == nil {
		return Action{}, missing(b.props.Name, "action", "function")
	}
	return b.props, nil
}

// MustBuild is like Build but panics on error.
func (b *ActionBuilder) MustBuild() Action {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

func (b *ActionBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
