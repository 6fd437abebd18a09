// README: Pricing request errors.
package pricing

import "errors"

// ErrBadRequest rejects a whole request before any unit is priced.
var ErrBadRequest = errors.New("bad pricing request")
