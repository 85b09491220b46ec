package staking

// Subscriber handles event subscriptions.
type Subscriber struct {
	done               chan struct{}
	anyHandler         func(Event)
	stakedHandler      func(Staked)
	withdrawnHandler   func(Withdrawn)
	claimedHandler     func(RewardsClaimed)
	rateChangedHandler func(RewardRateChanged)
	mintedHandler      func(TokensMinted)
	transferredHandler func(RewardsTransferred)
}

// OnStaked sets the handler for Staked events
func OnStaked(fn func(Staked)) func(*Subscriber) {
	return func(s *Subscriber) { s.stakedHandler = fn }
}

// OnWithdrawn sets the handler for Withdrawn events
func OnWithdrawn(fn func(Withdrawn)) func(*Subscriber) {
	return func(s *Subscriber) { s.withdrawnHandler = fn }
}

// OnRewardsClaimed sets the handler for RewardsClaimed events
func OnRewardsClaimed(fn func(RewardsClaimed)) func(*Subscriber) {
	return func(s *Subscriber) { s.claimedHandler = fn }
}

// OnRewardRateChanged sets the handler for RewardRateChanged events
func OnRewardRateChanged(fn func(RewardRateChanged)) func(*Subscriber) {
	return func(s *Subscriber) { s.rateChangedHandler = fn }
}

// OnTokensMinted sets the handler for TokensMinted events
func OnTokensMinted(fn func(TokensMinted)) func(*Subscriber) {
	return func(s *Subscriber) { s.mintedHandler = fn }
}

// OnRewardsTransferred sets the handler for RewardsTransferred events
func OnRewardsTransferred(fn func(RewardsTransferred)) func(*Subscriber) {
	return func(s *Subscriber) { s.transferredHandler = fn }
}

// OnAny runs fn for every event before its typed handler
func OnAny(fn func(Event)) func(*Subscriber) {
	return func(s *Subscriber) {
		prev := s.anyHandler
		s.anyHandler = func(ev Event) {
			prev(ev)
			fn(ev)
		}
	}
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// Returns a closer function that waits for all events to be processed.
//
// Example:
//
//	events := make(chan staking.Event, 16)
//	svc := staking.NewService(store, owner, vault, staking.WithEvents(events))
//	closer := staking.NewSubscriber(events,
//	  staking.OnStaked(func(e staking.Staked) { ... }),
//	)
//	defer closer()      // 2. Wait until every event is handled
//	defer close(events) // 1. Stop once the service is no longer used
//
// The subscriber processes events until the events channel closes,
// then the closer function confirms all processing is complete.
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:               make(chan struct{}),
		anyHandler:         func(Event) {},              // nop by default
		stakedHandler:      func(Staked) {},             // nop by default
		withdrawnHandler:   func(Withdrawn) {},          // nop by default
		claimedHandler:     func(RewardsClaimed) {},     // nop by default
		rateChangedHandler: func(RewardRateChanged) {},  // nop by default
		mintedHandler:      func(TokensMinted) {},       // nop by default
		transferredHandler: func(RewardsTransferred) {}, // nop by default
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			s.anyHandler(ev)
			switch e := ev.(type) {
			case Staked:
				s.stakedHandler(e)
			case Withdrawn:
				s.withdrawnHandler(e)
			case RewardsClaimed:
				s.claimedHandler(e)
			case RewardRateChanged:
				s.rateChangedHandler(e)
			case TokensMinted:
				s.mintedHandler(e)
			case RewardsTransferred:
				s.transferredHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
