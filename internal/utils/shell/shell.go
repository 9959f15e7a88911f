package shell

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
)

var (
	// HostPath means "run in the current working directory".
	HostPath string = ""

	// Default is the executor used by the package-level helpers. Tests
	// replace it with NewMockExecutor.
	Default Executor = &hostExecutor{}
)

// Executor runs a single shell command to completion and returns its
// combined output. workDir == HostPath runs in the current directory.
type Executor interface {
	Exec(cmdStr string, sudo bool, workDir string, envVal []string) (string, error)
}

// GetOSEnvirons returns the system environment variables as a map.
func GetOSEnvirons() map[string]string {
	environ := make(map[string]string)
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			environ[parts[0]] = parts[1]
		}
	}
	return environ
}

// getShell returns the preferred shell, falling back to /bin/sh if bash is not available
func getShell() string {
	shells := []string{"/bin/bash", "/usr/bin/bash", "/bin/sh"}
	for _, shell := range shells {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh" // fallback
}

// IsCommandExist checks if a command is available on the host.
func IsCommandExist(cmd string) (bool, error) {
	output, err := Default.Exec("command -v "+cmd, false, HostPath, nil)
	if err != nil {
		// command -v exits non-zero when the command is missing
		return false, nil
	}
	return strings.TrimSpace(output) != "", nil
}

// GetFullCmdStr prepares a command string with workdir, sudo and env prefixes.
func GetFullCmdStr(cmdStr string, sudo bool, workDir string, envVal []string) (string, error) {
	log := logger.Logger()
	envValStr := ""
	for _, env := range envVal {
		envValStr += env + " "
	}

	fullCmdStr := envValStr + cmdStr
	if sudo {
		fullCmdStr = "sudo " + fullCmdStr
	}

	if workDir != HostPath {
		if _, err := os.Stat(workDir); os.IsNotExist(err) {
			return cmdStr, fmt.Errorf("work directory %s does not exist", workDir)
		}
		fullCmdStr = "cd " + workDir + " && " + fullCmdStr
		log.Debugf("Exec in %s: [%s]", workDir, cmdStr)
	} else {
		log.Debugf("Exec: [%s]", cmdStr)
	}

	return fullCmdStr, nil
}

type hostExecutor struct{}

func (h *hostExecutor) Exec(cmdStr string, sudo bool, workDir string, envVal []string) (string, error) {
	log := logger.Logger()
	fullCmdStr, err := GetFullCmdStr(cmdStr, sudo, workDir, envVal)
	if err != nil {
		return "", fmt.Errorf("failed to get full command string: %w", err)
	}

	shell := getShell()
	cmd := exec.Command(shell, "-c", fullCmdStr)
	output, err := cmd.CombinedOutput()
	outputStr := string(output)

	if err != nil {
		if outputStr != "" {
			log.Infof(outputStr)
		}
		return outputStr, fmt.Errorf("failed to exec %s: %w", fullCmdStr, err)
	}
	if outputStr != "" {
		log.Debugf(outputStr)
	}
	return outputStr, nil
}

// ExecCmd executes a command through the Default executor and returns its
// output. Declared as a variable so tests can override it wholesale.
var ExecCmd = func(cmdStr string, sudo bool, workDir string, envVal []string) (string, error) {
	return Default.Exec(cmdStr, sudo, workDir, envVal)
}

// ExecCmdWithStream executes a command and streams its output line by line
// through the logger. Long-running build steps use this so progress is
// visible as it happens. When Default has been replaced by a mock the
// command is routed through it instead of being spawned.
var ExecCmdWithStream = func(cmdStr string, sudo bool, workDir string, envVal []string) (string, error) {
	if _, ok := Default.(*hostExecutor); !ok {
		return Default.Exec(cmdStr, sudo, workDir, envVal)
	}

	var outputStr string
	log := logger.Logger()

	fullCmdStr, err := GetFullCmdStr(cmdStr, sudo, workDir, envVal)
	if err != nil {
		return "", fmt.Errorf("failed to get full command string: %w", err)
	}

	shell := getShell()
	cmd := exec.Command(shell, "-c", fullCmdStr)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to get stdout pipe for command %s: %w", fullCmdStr, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to get stderr pipe for command %s: %w", fullCmdStr, err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start command %s: %w", fullCmdStr, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			str := scanner.Text()
			if str != "" {
				outputStr += str + "\n"
				log.Infof(str)
			}
		}
	}()

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			str := scanner.Text()
			if str != "" {
				log.Infof(str)
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return outputStr, fmt.Errorf("failed to wait for command %s: %w", fullCmdStr, err)
	}

	return outputStr, nil
}
