package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Manager owns the server process: it starts tunereel if it is not already
// running, waits for readiness, and shuts it down when the shell closes.
type Manager struct {
	logFunc    func(string)
	appFunc    func(string)
	serverCmd  *exec.Cmd
	serverAddr string
}

func NewManager(log, app func(string), serverAddr string) *Manager {
	return &Manager{logFunc: log, appFunc: app, serverAddr: serverAddr}
}

func (m *Manager) log(msg string) {
	if m.logFunc != nil {
		m.logFunc(msg)
	}
}

func (m *Manager) Stop() {
	if m.serverCmd != nil && m.serverCmd.Process != nil {
		fmt.Println("> TuneReel closing: Sending shutdown signal to server...")

		// Use 127.0.0.1 to avoid resolution issues
		addr := m.resolveAddr()
		url := fmt.Sprintf("http://%s/api/shutdown", addr)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		client := &http.Client{Timeout: 2 * time.Second}

		req, _ := http.NewRequestWithContext(ctx, "POST", url, http.NoBody)
		resp, err := client.Do(req)

		if err == nil {
			fmt.Println("> Shutdown command sent successfully.")
			resp.Body.Close()
			time.Sleep(500 * time.Millisecond)
		} else {
			fmt.Printf("> API shutdown failed: %v\n", err)
		}
	}
}

func (m *Manager) Start() {
	go func() {
		if !m.checkPrerequisites() {
			m.log("> Warning: no configs/tunereel.yaml found, server will use defaults.")
		}

		if !m.isServerRunning() {
			m.log("> Server not running. Starting tunereel...")
			go m.runServer()
		} else {
			m.log("> Server already active.")
			go m.tailServerLog()
		}

		m.log("> Waiting for server...")
		for i := 0; i < 30; i++ {
			if m.isServerReady() {
				m.log("> Server ready!")
				m.appFunc(fmt.Sprintf("http://%s", m.serverAddr))
				return
			}
			time.Sleep(1 * time.Second)
		}
		m.log("> Error: Server timed out.")
	}()
}

func (m *Manager) checkPrerequisites() bool {
	if _, err := os.Stat("configs/tunereel.yaml"); os.IsNotExist(err) {
		return false
	}
	return true
}

func (m *Manager) runServer() {
	cmd := exec.Command("./tunereel")
	m.serverCmd = cmd
	if err := m.runWithOutput(cmd); err != nil {
		m.log(fmt.Sprintf("Server exited with error: %v", err))
	}
}

func (m *Manager) runWithOutput(cmd *exec.Cmd) error {
	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()

	if err := cmd.Start(); err != nil {
		return err
	}

	go m.streamReader(stdout)
	go m.streamReader(stderr)

	return cmd.Wait()
}

func (m *Manager) tailServerLog() {
	// Simple tail implementation
	file, err := os.Open("logs/server.log")
	if err != nil {
		m.log(fmt.Sprintf("Could not open log file: %v", err))
		return
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		m.log(fmt.Sprintf("Could not seek log file: %v", err))
		return
	}
	reader := bufio.NewReader(file)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				time.Sleep(500 * time.Millisecond)
				continue
			}
			break
		}
		m.log(strings.TrimSpace(line))
	}
}

func (m *Manager) streamReader(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m.log(scanner.Text())
	}
}

func (m *Manager) resolveAddr() string {
	addr := m.serverAddr
	if strings.HasPrefix(addr, ":") {
		return "127.0.0.1" + addr
	}
	if strings.HasPrefix(addr, "localhost:") {
		return strings.Replace(addr, "localhost:", "127.0.0.1:", 1)
	}
	return addr
}

func (m *Manager) isServerRunning() bool {
	client := http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/api/version", m.serverAddr))
	if err == nil {
		resp.Body.Close()
		return true
	}
	return false
}

func (m *Manager) isServerReady() bool {
	client := http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/api/version", m.serverAddr))
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == 200
}
