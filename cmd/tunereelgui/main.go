package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	webview "github.com/webview/webview_go"
)

const serverAddr = "localhost:1848"

func main() {
	// Webview requires main thread
	runtime.LockOSThread()

	// Ensure we run from the executable directory to find configs/ and .env
	exe, _ := os.Executable()
	if err := os.Chdir(filepath.Dir(exe)); err != nil {
		panic(err)
	}

	w := webview.New(true)
	defer w.Destroy()

	// Aggressively block context menu via injection
	w.Init(`
		window.addEventListener('contextmenu', function(e) {
			e.preventDefault();
		}, true); // Use capture phase
	`)

	w.SetTitle("TuneReel")
	w.SetSize(960, 720, webview.HintNone)

	// Go bindings calling JS functions
	logProxy := func(msg string) {
		w.Dispatch(func() {
			w.Eval("window.addLogLine(" + escapeJS(msg) + ")")
		})
	}

	appProxy := func(url string) {
		w.Dispatch(func() {
			w.Eval("window.enableApp(" + escapeJS(url) + ")")
		})
	}

	mgr := NewManager(logProxy, appProxy, serverAddr)
	defer mgr.Stop()

	bridge := NewBridge(func(channel, payload string) {
		w.Dispatch(func() {
			w.Eval("window.receiveMessage(" + escapeJS(channel) + "," + escapeJS(payload) + ")")
		})
	})
	bridge.Handle("file-select", func(path string) {
		go handleFileSelect(bridge, logProxy, path)
	})
	bridge.Handle("video-download", func(string) {
		go handleVideoDownload(bridge, logProxy)
	})

	// The page reaches the host only through this binding; the bridge
	// drops anything outside the channel allow-list.
	_ = w.Bind("bridgeSend", func(channel, payload string) {
		bridge.Receive(channel, payload)
	})

	// Start local server to serve UI (avoids "Public connection" errors)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	defer ln.Close()

	go func() {
		if err := http.Serve(ln, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(htmlContent))
		})); err != nil {
			panic(err)
		}
	}()

	w.Navigate("http://" + ln.Addr().String())

	// Start manager loop
	mgr.Start()

	w.Run()
}

// handleFileSelect forwards the chosen file into the workflow and reports
// the stored path back to the page.
func handleFileSelect(bridge *Bridge, log func(string), path string) {
	body, _ := json.Marshal(map[string]string{"path": path})
	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Post("http://"+serverAddr+"/api/workflow/file", "application/json", bytes.NewReader(body))
	if err != nil {
		log(fmt.Sprintf("> Upload failed: %v", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		log("> Upload rejected: " + string(msg))
		return
	}

	var state struct {
		UploadedPath string `json:"uploaded_path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		log(fmt.Sprintf("> Bad state response: %v", err))
		return
	}
	bridge.Send("file-selected", state.UploadedPath)
}

// handleVideoDownload pulls the finished video and writes it next to the
// user's other downloads.
func handleVideoDownload(bridge *Bridge, log func(string)) {
	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Get("http://" + serverAddr + "/api/download")
	if err != nil {
		log(fmt.Sprintf("> Download failed: %v", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log(fmt.Sprintf("> Download failed: status %d", resp.StatusCode))
		return
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dest := filepath.Join(home, "Downloads", "music-video.mp4")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		log(fmt.Sprintf("> Could not create downloads dir: %v", err))
		return
	}

	f, err := os.Create(dest)
	if err != nil {
		log(fmt.Sprintf("> Could not create file: %v", err))
		return
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		log(fmt.Sprintf("> Write failed: %v", err))
		return
	}

	bridge.Send("download-complete", dest)
}

func escapeJS(s string) string {
	b, _ := json.Marshal(s)
	// json.Marshal returns "string", surrounding quotes included.
	return string(b)
}
