package bearer

import (
	"context"

	"github.com/goliatone/go-bearer/middleware/tokenware"
)

// Principal aliases the tokenware principal so consumers can use bearer helpers directly.
type Principal = tokenware.Principal

// ContextEnricherAdapter stores the resolved user in the standard context for
// downstream guard usage.
func ContextEnricherAdapter(c context.Context, principal tokenware.Principal) context.Context {
	user, ok := principal.(*User)
	if !ok || user == nil {
		return c
	}

	return WithContext(c, user)
}
