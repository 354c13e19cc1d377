package config

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/bindings"
	"gopkg.in/yaml.v3"
)

// IncludeList is the include key: a single path or a list of paths. A
// directory path pulls in its YAML files.
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	var items []*yaml.Node
	switch value.Kind {
	case 0:
	case yaml.ScalarNode:
		items = []*yaml.Node{value}
	case yaml.SequenceNode:
		items = value.Content
	default:
		return fmt.Errorf("include must be a path or a list of paths")
	}
	paths := make([]string, 0, len(items))
	for _, item := range items {
		if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
			return fmt.Errorf("line %d: include entries must be strings", item.Line)
		}
		paths = append(paths, item.Value)
	}
	*l = paths
	return nil
}

type RawBorderGap struct {
	Top    *int `yaml:"top"`
	Bottom *int `yaml:"bottom"`
	Left   *int `yaml:"left"`
	Right  *int `yaml:"right"`
}

type RawDesktop struct {
	Name  *string  `yaml:"name"`
	Mode  *string  `yaml:"mode"`
	Split *float64 `yaml:"split"`
}

type RawPalette struct {
	Active   *string `yaml:"active"`
	Inactive *string `yaml:"inactive"`
	Urgent   *string `yaml:"urgent"`
}

type RawColors struct {
	Dark  *RawPalette `yaml:"dark"`
	Light *RawPalette `yaml:"light"`
}

// RawConfig is the file shape: every field optional so unset keys keep
// their defaults.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	LogLevel       *string `yaml:"log_level"`
	LogFile        *string `yaml:"log_file"`
	LogMaxSizeMB   *int    `yaml:"log_max_size_mb"`
	LogMaxFiles    *int    `yaml:"log_max_files"`
	WMName         *string `yaml:"wm_name"`
	Terminal       *string `yaml:"terminal"`
	StartupScript  *string `yaml:"startup_script"`
	ShutdownScript *string `yaml:"shutdown_script"`
	MessageSocket  *string `yaml:"message_socket"`
	CommandSocket  *string `yaml:"command_socket"`
	StatusHTTP     *string `yaml:"status_http"`

	StackedBorder *int          `yaml:"stacked_border"`
	TiledBorder   *int          `yaml:"tiled_border"`
	MoveAmount    *int          `yaml:"move_amount"`
	SnapDistance  *int          `yaml:"snap_distance"`
	BorderGap     *RawBorderGap `yaml:"border_gap"`

	DesktopModes []string     `yaml:"desktop_modes"`
	Desktops     []RawDesktop `yaml:"desktops"`
	Theme        *string      `yaml:"theme"`
	Colors       *RawColors   `yaml:"colors"`

	Keys        []bindings.Spec `yaml:"keys"`
	UnbindKeys  []string        `yaml:"unbind_keys"`
	Mouse       []bindings.Spec `yaml:"mouse"`
	UnbindMouse []string        `yaml:"unbind_mouse"`

	AppDesktops []AppDesktop `yaml:"app_desktops"`
	AppStates   []AppStates  `yaml:"app_states"`
}
