// Package export writes accumulated scripts to disk, one file per host.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/locustgen/packages/locust"
	"github.com/abdul-hamid-achik/locustgen/packages/naming"
)

// File describes one written script.
type File struct {
	Host  string `json:"host"`
	Path  string `json:"path"`
	Tasks int    `json:"tasks"`
}

// FileName returns "<prefix>-<sanitized host>.py".
func FileName(prefix, host string) string {
	return prefix + "-" + naming.HostFile(host) + ".py"
}

// WriteScripts writes the script of every host in reg below dir, replacing
// existing files. Hosts are written in observation order.
func WriteScripts(reg *locust.Registry, dir, prefix string) ([]File, error) {
	if prefix == "" {
		return nil, fmt.Errorf("filename prefix is required")
	}

	var files []File
	for _, host := range reg.Hosts() {
		code, err := reg.Get(host)
		if err != nil {
			return files, err
		}

		path := filepath.Join(dir, FileName(prefix, host))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return files, fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(code), 0644); err != nil {
			return files, fmt.Errorf("failed to write %s: %w", path, err)
		}

		files = append(files, File{Host: host, Path: path, Tasks: reg.TaskCount(host)})
	}

	return files, nil
}
