package testutil

import "sync"

// MockInstaller records firmware install requests and lets the test
// settle them explicitly.
type MockInstaller struct {
	mu        sync.Mutex
	installs  map[string]installCall
	abortOK   bool
	installed []string
}

type installCall struct {
	fileName  string
	onSuccess func()
	onFail    func()
}

// NewMockInstaller creates an installer whose Abort answers abortOK.
func NewMockInstaller(abortOK bool) *MockInstaller {
	return &MockInstaller{installs: make(map[string]installCall), abortOK: abortOK}
}

// Install records the request; the outcome waits for Succeed or Fail.
func (m *MockInstaller) Install(deviceKey, fileName string, onSuccess func(), onFail func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installs[deviceKey] = installCall{fileName: fileName, onSuccess: onSuccess, onFail: onFail}
	m.installed = append(m.installed, deviceKey)
}

// Abort answers the configured result.
func (m *MockInstaller) Abort(deviceKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.abortOK
}

// Succeed fires the success callback of a recorded install.
func (m *MockInstaller) Succeed(deviceKey string) {
	m.mu.Lock()
	call, ok := m.installs[deviceKey]
	m.mu.Unlock()
	if ok {
		call.onSuccess()
	}
}

// Fail fires the failure callback of a recorded install.
func (m *MockInstaller) Fail(deviceKey string) {
	m.mu.Lock()
	call, ok := m.installs[deviceKey]
	m.mu.Unlock()
	if ok {
		call.onFail()
	}
}

// Installs returns the device keys handed to Install, in order.
func (m *MockInstaller) Installs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.installed))
	copy(out, m.installed)
	return out
}

// MockVersions answers firmware version lookups from a fixed map.
type MockVersions struct {
	mu       sync.Mutex
	versions map[string]string
}

// NewMockVersions creates a version provider over the given map.
func NewMockVersions(versions map[string]string) *MockVersions {
	if versions == nil {
		versions = make(map[string]string)
	}
	return &MockVersions{versions: versions}
}

// FirmwareVersion returns the mapped version, or "" when unknown.
func (m *MockVersions) FirmwareVersion(deviceKey string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[deviceKey]
}

// Set replaces one device's version.
func (m *MockVersions) Set(deviceKey, version string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[deviceKey] = version
}
