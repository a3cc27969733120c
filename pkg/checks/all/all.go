// Package all registers every built-in analysis module. Import it for
// side effects:
//
//	import _ "github.com/trustlens/trustlens/pkg/checks/all"
package all

import (
	_ "github.com/trustlens/trustlens/pkg/checks/cookies"
	_ "github.com/trustlens/trustlens/pkg/checks/domaudit"
	_ "github.com/trustlens/trustlens/pkg/checks/forms"
	_ "github.com/trustlens/trustlens/pkg/checks/headers"
	_ "github.com/trustlens/trustlens/pkg/checks/leakypaths"
	_ "github.com/trustlens/trustlens/pkg/checks/mixedcontent"
	_ "github.com/trustlens/trustlens/pkg/checks/openredirect"
	_ "github.com/trustlens/trustlens/pkg/checks/tlsaudit"
	_ "github.com/trustlens/trustlens/pkg/checks/urlintel"
)
