package deed

// Stub describes a deed whose invocation is supplied verbatim. Stubs skip
// the action and request pipelines entirely and are used to substitute
// test doubles for real deeds.
type Stub struct {
	Name string
	Stub Invocation
}

// DeedName implements Deed.
func (d Stub) DeedName() string { return d.Name }

// DeedType implements Deed.
func (d Stub) DeedType() Type { return TypeStub }

// StubBuilder configures a Stub.
type StubBuilder struct {
	props Stub
	err   error
}

// NewStub starts a stub deed called name.
func NewStub(name string) *StubBuilder {
	b := &StubBuilder{props: Stub{Name: name}}
	if name == "" {
		b.err = missing(name, "name", "non-empty string")
	}
	return b
}

// Does sets the invocation installed for the deed.
func (b *StubBuilder) Does(fn Invocation) *StubBuilder {
	if fn == nil {
		if b.err == nil {
			b.err = invalid(b.props.Name, "stub", fn, "function")
		}
		return b
	}
	b.props.Stub = fn
	return b
}

// Err returns the first configuration error, if any.
func (b *StubBuilder) Err() error { return b.err }

// Build returns the immutable descriptor.
func (b *StubBuilder) Build() (Stub, error) {
	if b.err != nil {
		return Stub{}, b.err
	}
	if b.props.Stub == nil {
		return Stub{}, missing(b.props.Name, "stub", "function")
	}
	return b.props, nil
}

// MustBuild is like Build but panics on error.
func (b *StubBuilder) MustBuild() Stub {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
