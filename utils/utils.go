package utils

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the values read from a "key: value" config file. Tolerance
// fields are nil when the key is absent so that CLI defaults still apply.
type Config struct {
	Genbank      string
	MaxUnknowns  *int
	Contigs      *float64
	AssemblySize *float64
	Distance     *float64
	FilterLevel  *float64
	Threads      int
	Mash         string
	Rebuild      bool
}

func ReadConfig(configPath string) (Config, error) {
	configFile, err := os.Open(configPath)
	if err != nil {
		return Config{}, err
	}
	defer configFile.Close()
	var cfg Config

	scanner := bufio.NewScanner(configFile)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "genbank":
			cfg.Genbank = value
		case "max_unknowns":
			n, err := strconv.Atoi(value)
			if err != nil {
				return cfg, fmt.Errorf("%s:%d: max_unknowns: %w", configPath, lineNo, err)
			}
			cfg.MaxUnknowns = &n
		case "contigs", "assembly_size", "distance", "filter_level":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return cfg, fmt.Errorf("%s:%d: %s: %w", configPath, lineNo, key, err)
			}
			switch key {
			case "contigs":
				cfg.Contigs = &f
			case "assembly_size":
				cfg.AssemblySize = &f
			case "distance":
				cfg.Distance = &f
			case "filter_level":
				cfg.FilterLevel = &f
			}
		case "threads":
			n, err := strconv.Atoi(value)
			if err != nil {
				return cfg, fmt.Errorf("%s:%d: threads: %w", configPath, lineNo, err)
			}
			cfg.Threads = n
		case "mash":
			cfg.Mash = value
		case "rebuild":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return cfg, fmt.Errorf("%s:%d: rebuild: %w", configPath, lineNo, err)
			}
			cfg.Rebuild = b
		}
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}

	return cfg, nil

}

func RunBashCmdVerbose(cmdStr string) error {
	cmd := exec.Command("bash", "-c", cmdStr)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		return err
	}
	return nil
}

// RunBashCmdQuiet runs cmdStr discarding stdout, which is where mash writes
// its progress chatter.
func RunBashCmdQuiet(cmdStr string) error {
	cmd := exec.Command("bash", "-c", cmdStr)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// MashBin returns the mash executable, honouring the MASH environment variable.
func MashBin() string {
	if bin := os.Getenv("MASH"); bin != "" {
		return bin
	}
	return "mash"
}

// CheckDeps verifies the external tools used to rebuild inputs are on PATH.
func CheckDeps() error {
	for _, tool := range []string{MashBin()} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found: %w", tool, err)
		}
	}
	return nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
