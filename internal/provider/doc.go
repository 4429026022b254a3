// Package provider talks to remote capability providers.
//
// Each provider exposes a single POST <base>/execute endpoint that accepts an
// ability name with its parameters and replies with a JSON object holding a
// data payload. Client normalizes every outcome, including network faults,
// into an ability.Result so the dispatcher never has to handle Go errors for
// individual calls. Registry builds one client per configured provider and
// rejects unknown provider names up front.
package provider
