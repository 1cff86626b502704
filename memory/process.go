//go:build windows

package memory

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"
)

const waitTimeout = 0x00000102

// ErrProcessNotFound is returned when no running process matches the
// requested executable name.
var ErrProcessNotFound = errors.New("process not found")

// ProcessMemory owns an open handle to the target process and implements
// Reader over ReadProcessMemory.
type ProcessMemory struct {
	hProcess    windows.Handle
	pid         uint32
	exeName     string
	baseAddress uint64
	moduleSize  uint32
}

// Open locates a process by executable name, opens a read handle and
// resolves the main-module base address.
func Open(exeName string) (*ProcessMemory, error) {
	pid, err := findPID(exeName)
	if err != nil {
		return nil, err
	}
	log.Info().Uint32("pid", pid).Str("exe", exeName).Msg("found target process")

	access := uint32(windows.PROCESS_QUERY_INFORMATION | windows.PROCESS_VM_READ)
	hProcess, err := windows.OpenProcess(access, false, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to open process %d: %w", pid, err)
	}

	pm := &ProcessMemory{hProcess: hProcess, pid: pid, exeName: exeName}
	if err := pm.resolveMainModule(); err != nil {
		windows.CloseHandle(hProcess)
		return nil, err
	}
	log.Info().
		Str("exe", exeName).
		Uint64("base", pm.baseAddress).
		Uint32("size", pm.moduleSize).
		Msg("attached to target")
	return pm, nil
}

// FindWindowPID resolves a PID by top-level window title. Open does not
// consult it: Open attaches to the first process whose image name matches.
func FindWindowPID(windowTitle string) (uint32, bool) {
	title, err := syscall.UTF16PtrFromString(windowTitle)
	if err != nil {
		return 0, false
	}
	hwnd := win.FindWindow(nil, title)
	if hwnd == 0 {
		return 0, false
	}
	var pid uint32
	win.GetWindowThreadProcessId(hwnd, &pid)
	return pid, pid != 0
}

func findPID(exeName string) (uint32, error) {
	pids := make([]uint32, 1024)
	var bytesReturned uint32
	if err := windows.EnumProcesses(pids, &bytesReturned); err != nil {
		return 0, fmt.Errorf("EnumProcesses failed: %w", err)
	}
	numPids := bytesReturned / uint32(unsafe.Sizeof(pids[0]))
	want := strings.ToLower(exeName)

	for i := uint32(0); i < numPids; i++ {
		pid := pids[i]
		hProcess, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ, false, pid)
		if err != nil {
			continue
		}
		name, err := processImageName(hProcess)
		windows.CloseHandle(hProcess)
		if err != nil {
			continue
		}
		if strings.ToLower(name) == want {
			return pid, nil
		}
	}
	return 0, ErrProcessNotFound
}

func processImageName(hProcess windows.Handle) (string, error) {
	var hMod windows.Handle
	var cbNeeded uint32
	if err := windows.EnumProcessModules(hProcess, &hMod, uint32(unsafe.Sizeof(hMod)), &cbNeeded); err != nil {
		return "", err
	}
	var buf [windows.MAX_PATH]uint16
	if err := windows.GetModuleFileNameEx(hProcess, hMod, &buf[0], windows.MAX_PATH); err != nil {
		return "", err
	}
	fullPath := windows.UTF16ToString(buf[:])
	return fullPath[strings.LastIndex(fullPath, `\`)+1:], nil
}

func (pm *ProcessMemory) resolveMainModule() error {
	hMods := make([]windows.Handle, 1024)
	var cbNeeded uint32
	if err := windows.EnumProcessModules(pm.hProcess, &hMods[0], uint32(len(hMods))*uint32(unsafe.Sizeof(hMods[0])), &cbNeeded); err != nil {
		return fmt.Errorf("EnumProcessModules failed: %w", err)
	}
	numMods := cbNeeded / uint32(unsafe.Sizeof(hMods[0]))
	for i := uint32(0); i < numMods; i++ {
		var modName [windows.MAX_PATH]uint16
		if err := windows.GetModuleBaseName(pm.hProcess, hMods[i], &modName[0], windows.MAX_PATH); err != nil {
			continue
		}
		name := windows.UTF16ToString(modName[:])
		if i == 0 || strings.EqualFold(name, pm.exeName) {
			var modInfo windows.ModuleInfo
			if err := windows.GetModuleInformation(pm.hProcess, hMods[i], &modInfo, uint32(unsafe.Sizeof(modInfo))); err != nil {
				return fmt.Errorf("GetModuleInformation failed: %w", err)
			}
			pm.baseAddress = uint64(modInfo.BaseOfDll)
			pm.moduleSize = modInfo.SizeOfImage
			return nil
		}
	}
	return errors.New("main module not found")
}

// ReadBytes reads exactly size bytes at address. A short read is an error.
func (pm *ProcessMemory) ReadBytes(address uint64, size int) ([]byte, error) {
	if size <= 0 {
		return nil, &ReadError{Address: address, Requested: size}
	}
	buf := make([]byte, size)
	var bytesRead uintptr
	err := windows.ReadProcessMemory(pm.hProcess, uintptr(address), &buf[0], uintptr(size), &bytesRead)
	if err != nil {
		return nil, &ReadError{Address: address, Requested: size, Err: err}
	}
	if int(bytesRead) != size {
		return nil, &ReadError{Address: address, Requested: size, Got: int(bytesRead)}
	}
	return buf, nil
}

func (pm *ProcessMemory) BaseAddress() uint64 { return pm.baseAddress }

func (pm *ProcessMemory) ModuleSize() uint32 { return pm.moduleSize }

func (pm *ProcessMemory) PID() uint32 { return pm.pid }

// IsAlive checks whether the process handle is still signaled as running.
func (pm *ProcessMemory) IsAlive() bool {
	result, err := windows.WaitForSingleObject(pm.hProcess, 0)
	return err == nil && result == waitTimeout
}

func (pm *ProcessMemory) Close() error {
	return windows.CloseHandle(pm.hProcess)
}
