package config

import (
	"fmt"
	"math"
)

const (
	nbCoresMin = 1
	// cores left to the desktop when no previous default exists
	nbCoresMargin = 2

	apiPrefix      = "/api"
	localWorkspace = "./local_workspace"
)

// UpdateTo215 moves the slurm default_n_cpu value into a nb_cores
// descriptor and enables core detection for the local launcher.
func UpdateTo215(doc Document, cpuCount int) error {
	nbCoresMax := max(cpuCount, nbCoresMin)
	nbCoresDefault := max(nbCoresMin, nbCoresMax-nbCoresMargin)

	launcher, err := ensureMapping(doc, "launcher")
	if err != nil {
		return err
	}

	local, ok, err := lookupMapping(launcher, "local")
	if err != nil {
		return err
	}
	if ok {
		local["enable_nb_cores_detection"] = true
	}

	slurm, ok, err := lookupMapping(launcher, "slurm")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if raw, found := slurm["default_n_cpu"]; found {
		delete(slurm, "default_n_cpu")
		if raw != nil {
			n, err := toInt(raw)
			if err != nil {
				return fmt.Errorf("launcher.slurm.default_n_cpu: %w", err)
			}
			nbCoresDefault = max(nbCoresMin, min(n, nbCoresMax))
		}
	}

	slurm["enable_nb_cores_detection"] = false
	slurm["nb_cores"] = Document{
		"min":     nbCoresMin,
		"default": nbCoresDefault,
		"max":     nbCoresMax,
	}
	return nil
}

// UpdateTo218 drops root_path and pins the API prefix.
func UpdateTo218(doc Document) error {
	delete(doc, "root_path")
	doc["api_prefix"] = apiPrefix
	return nil
}

// UpdateTo219 sets a workspace path for the local launcher. The directory is
// created by the server itself.
func UpdateTo219(doc Document) error {
	launcher, err := ensureMapping(doc, "launcher")
	if err != nil {
		return err
	}

	local, ok, err := lookupMapping(launcher, "local")
	if err != nil {
		return err
	}
	if ok {
		local["local_workspace"] = localWorkspace
	}
	return nil
}

// EnableDesktopMode forces desktop_mode on.
func EnableDesktopMode(doc Document) {
	doc["desktop_mode"] = true
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		return int(math.Round(n)), nil
	default:
		return 0, fmt.Errorf("unexpected value %v (%T)", v, v)
	}
}
