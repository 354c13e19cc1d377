package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig overlays raw onto DefaultConfig. Lists replace the
// defaults wholesale; desktop entries inherit the default name and split of
// the same position.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFile, raw.LogFile)
	setInt(&cfg.LogMaxSizeMB, raw.LogMaxSizeMB)
	setInt(&cfg.LogMaxFiles, raw.LogMaxFiles)
	setString(&cfg.WMName, raw.WMName)
	setString(&cfg.Terminal, raw.Terminal)
	setString(&cfg.StartupScript, raw.StartupScript)
	setString(&cfg.ShutdownScript, raw.ShutdownScript)
	setString(&cfg.MessageSocket, raw.MessageSocket)
	setString(&cfg.CommandSocket, raw.CommandSocket)
	setString(&cfg.StatusHTTP, raw.StatusHTTP)

	setInt(&cfg.StackedBorder, raw.StackedBorder)
	setInt(&cfg.TiledBorder, raw.TiledBorder)
	setInt(&cfg.MoveAmount, raw.MoveAmount)
	setInt(&cfg.SnapDistance, raw.SnapDistance)
	if raw.BorderGap != nil {
		setInt(&cfg.BorderGap.Top, raw.BorderGap.Top)
		setInt(&cfg.BorderGap.Bottom, raw.BorderGap.Bottom)
		setInt(&cfg.BorderGap.Left, raw.BorderGap.Left)
		setInt(&cfg.BorderGap.Right, raw.BorderGap.Right)
	}

	if raw.DesktopModes != nil {
		cfg.DesktopModes = append([]string(nil), raw.DesktopModes...)
	}
	if raw.Desktops != nil {
		desktops := make([]Desktop, len(raw.Desktops))
		for i, rd := range raw.Desktops {
			d := Desktop{Name: fmt.Sprintf("%d", i+1), Split: 0.5}
			if i < len(defaultDesktopNames) {
				d.Name = defaultDesktopNames[i]
			}
			setString(&d.Name, rd.Name)
			setString(&d.Mode, rd.Mode)
			if rd.Split != nil {
				d.Split = *rd.Split
			}
			desktops[i] = d
		}
		cfg.Desktops = desktops
	}
	setString(&cfg.Theme, raw.Theme)
	if raw.Colors != nil {
		applyPalette(&cfg.Colors.Dark, raw.Colors.Dark)
		applyPalette(&cfg.Colors.Light, raw.Colors.Light)
	}

	if raw.Keys != nil {
		cfg.Keys = raw.Keys
	}
	if raw.UnbindKeys != nil {
		cfg.UnbindKeys = raw.UnbindKeys
	}
	if raw.Mouse != nil {
		cfg.Mouse = raw.Mouse
	}
	if raw.UnbindMouse != nil {
		cfg.UnbindMouse = raw.UnbindMouse
	}
	if raw.AppDesktops != nil {
		cfg.AppDesktops = raw.AppDesktops
	}
	if raw.AppStates != nil {
		cfg.AppStates = raw.AppStates
	}
	return cfg, nil
}

func applyPalette(dst *Palette, raw *RawPalette) {
	if raw == nil {
		return
	}
	setString(&dst.Active, raw.Active)
	setString(&dst.Inactive, raw.Inactive)
	setString(&dst.Urgent, raw.Urgent)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
