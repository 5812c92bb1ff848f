package x402

import "context"

// VerifyContext carries the inputs to a verify call into lifecycle hooks.
type VerifyContext struct {
	Ctx     context.Context
	Request VerifyRequest
}

// VerifyResultContext carries a successful verify outcome into after-hooks.
type VerifyResultContext struct {
	VerifyContext
	Result *VerifyResponse
}

// VerifyFailureContext carries a failed verify outcome into failure hooks.
type VerifyFailureContext struct {
	VerifyContext
	Error error
}

// SettleContext carries the inputs to a settle call into lifecycle hooks.
type SettleContext struct {
	Ctx     context.Context
	Request SettleRequest
}

// SettleResultContext carries a successful settle outcome into after-hooks.
type SettleResultContext struct {
	SettleContext
	Result *SettleResponse
}

// SettleFailureContext carries a failed settle outcome into failure hooks.
type SettleFailureContext struct {
	SettleContext
	Error error
}

// BeforeHookResult lets a before-hook abort the operation outright.
type BeforeHookResult struct {
	Abort  bool
	Reason string
}

// VerifyFailureHookResult lets an on-failure hook recover with a cached result.
type VerifyFailureHookResult struct {
	Recovered bool
	Result    *VerifyResponse
}

// SettleFailureHookResult lets an on-failure hook recover with a cached result.
type SettleFailureHookResult struct {
	Recovered bool
	Result    *SettleResponse
}

// BeforeVerifyHook runs before dispatch; Abort=true short-circuits with Reason.
type BeforeVerifyHook func(VerifyContext) (*BeforeHookResult, error)

// AfterVerifyHook runs after a successful verify; its error is logged only.
type AfterVerifyHook func(VerifyResultContext) error

// OnVerifyFailureHook runs when verify returns an error; it may recover.
type OnVerifyFailureHook func(VerifyFailureContext) (*VerifyFailureHookResult, error)

// BeforeSettleHook runs before dispatch; Abort=true short-circuits with Reason.
type BeforeSettleHook func(SettleContext) (*BeforeHookResult, error)

// AfterSettleHook runs after a successful settle; its error is logged only.
type AfterSettleHook func(SettleResultContext) error

// OnSettleFailureHook runs when settle returns an error; it may recover.
type OnSettleFailureHook func(SettleFailureContext) (*SettleFailureHookResult, error)
