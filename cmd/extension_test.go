package cmd

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestExtensionMechanism(t *testing.T) {
	// 1. Create a temporary directory
	tempDir := t.TempDir()

	// 2. Create pnl-hello executable
	helloCmdSource := fmt.Sprintf(`
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("args=%%v\n", os.Args[1:])
}
`, EnvBaseCurrency, EnvBaseCurrency, EnvDefaultCurrency, EnvDefaultCurrency, EnvVerbose, EnvVerbose)

	helloCmdPath := filepath.Join(tempDir, "pnl-hello")

	// Write source to a temporary file
	srcFile := helloCmdPath + ".go"
	if err := os.WriteFile(srcFile, []byte(helloCmdSource), 0644); err != nil {
		t.Fatalf("Failed to write pnl-hello source: %v", err)
	}

	// Compile pnl-hello
	cmd := exec.Command("go", "build", "-o", helloCmdPath, srcFile)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to compile pnl-hello: %v", err)
	}
	log.Printf("Compiled pnl-hello to %s", helloCmdPath)

	// 3. Compile the main pnl binary
	pnlBinaryPath := filepath.Join(tempDir, "pnl")
	cmd = exec.Command("go", "build", "-o", pnlBinaryPath, "../pnl")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to compile pnl binary: %v", err)
	}

	// 4. Call pnl binary with extension and global flags
	args := []string{
		"-base", "CHF",
		"-default-currency", "XYZ",
		"-v",
		"hello", // The extension subcommand
		"world",
	}
	pnlCmd := exec.Command(pnlBinaryPath, args...)
	pnlCmd.Env = []string{"PATH=" + tempDir + string(os.PathListSeparator) + os.Getenv("PATH")}

	var stdout, stderr bytes.Buffer
	pnlCmd.Stdout = &stdout
	pnlCmd.Stderr = &stderr

	if err := pnlCmd.Run(); err != nil {
		t.Fatalf("pnl command failed: %v\nStdout: %s\nStderr: %s", err, stdout.String(), stderr.String())
	}

	// 5. Verify output
	output := stdout.String()
	expected := []string{
		EnvBaseCurrency + "=CHF",
		EnvDefaultCurrency + "=XYZ",
		EnvVerbose + "=" + strconv.FormatBool(true),
		"args=[world]",
	}
	for _, line := range expected {
		if !strings.Contains(output, line) {
			t.Errorf("Expected output to contain %q, but got:\n%s", line, output)
		}
	}

	if stderr.Len() > 0 {
		t.Logf("Stderr from pnl command: %s", stderr.String())
	}
}

func TestRunExtension_NotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if found, code := RunExtension("does-not-exist", nil); found || code != 0 {
		t.Errorf("RunExtension() = %v, %d, want false, 0", found, code)
	}
}
