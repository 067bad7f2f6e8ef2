package adb

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// FindADB attempts to locate the adb executable
func FindADB(preferredPath string) (string, error) {
	binary := "adb"
	if runtime.GOOS == "windows" {
		binary = "adb.exe"
	}

	if preferredPath != "" {
		if info, err := os.Stat(preferredPath); err == nil {
			if !info.IsDir() {
				return preferredPath, nil
			}
			candidate := filepath.Join(preferredPath, binary)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	// Android SDK locations
	for _, env := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		root := os.Getenv(env)
		if root == "" {
			continue
		}
		candidate := filepath.Join(root, "platform-tools", binary)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if adbPath, err := exec.LookPath(binary); err == nil {
		return adbPath, nil
	}

	return "", fmt.Errorf("adb not found, please specify path in config")
}
