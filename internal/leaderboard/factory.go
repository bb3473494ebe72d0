package leaderboard

// Factory builds the Service of a device out of the shared store.
type Factory struct {
	store      DocumentStore
	identities func(deviceID string) IdentityProvider
	steps      func(deviceID string) StepCounter
	opts       []Option
}

func NewFactory(
	store DocumentStore,
	identities func(deviceID string) IdentityProvider,
	steps func(deviceID string) StepCounter,
	opts ...Option,
) *Factory {
	return &Factory{
		store:      store,
		identities: identities,
		steps:      steps,
		opts:       opts,
	}
}

func (f *Factory) ForDevice(deviceID string) *Service {
	return NewService(f.store, f.identities(deviceID), f.steps(deviceID), f.opts...)
}
