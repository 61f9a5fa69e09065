package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAppSetupGuide explains how to register the script application whose
// client id and secret riddle authenticates with
func ShowAppSetupGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "REDDIT APPLICATION SETUP")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "riddle reads public listings with application-only OAuth.")
	fmt.Fprintln(w, "It needs the client id and secret of a Reddit app you own:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Open https://www.reddit.com/prefs/apps while logged in")
	fmt.Fprintln(w, "  2. Click 'create another app...'")
	fmt.Fprintln(w, "  3. Pick the 'script' type and any redirect uri (e.g. http://localhost)")
	fmt.Fprintln(w, "  4. The client id is the short string under the app name")
	fmt.Fprintln(w, "  5. The secret is listed next to 'secret'")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Put the client id in config.yaml under credentials.client_id.")
	fmt.Fprintln(w, "The secret can live there too, or be stored with 'riddle auth login'")
	fmt.Fprintln(w, "and left empty in the file.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}
