package main

import (
	"github.com/nvr-ai/go-smooth/images"
	"github.com/nvr-ai/go-smooth/images/kernels"
	"github.com/spf13/pflag"
)

// Enum flag values. Each validates on Set so a bad value fails at parse time
// with pflag's "invalid argument" message.

type methodFlag struct{ v kernels.Method }

func (f *methodFlag) String() string { return f.v.String() }
func (f *methodFlag) Type() string   { return "mean|median" }
func (f *methodFlag) Set(s string) (err error) {
	f.v, err = kernels.ParseMethod(s)
	return err
}

type edgeFlag struct{ v kernels.EdgeMode }

func (f *edgeFlag) String() string { return f.v.String() }
func (f *edgeFlag) Type() string   { return "clamp|skip" }
func (f *edgeFlag) Set(s string) (err error) {
	f.v, err = kernels.ParseEdgeMode(s)
	return err
}

// formatFlag is empty until set; an empty format means "infer from the path".
type formatFlag struct{ v images.ImageFormat }

func (f *formatFlag) String() string { return string(f.v) }
func (f *formatFlag) Type() string   { return "format" }
func (f *formatFlag) Set(s string) (err error) {
	f.v, err = images.ParseFormat(s)
	return err
}

type interpFlag struct{ v images.ResampleFilter }

func (f *interpFlag) String() string { return f.v.String() }
func (f *interpFlag) Type() string   { return "interp" }
func (f *interpFlag) Set(s string) (err error) {
	f.v, err = images.ParseResampleFilter(s)
	return err
}

var (
	_ pflag.Value = (*methodFlag)(nil)
	_ pflag.Value = (*edgeFlag)(nil)
	_ pflag.Value = (*formatFlag)(nil)
	_ pflag.Value = (*interpFlag)(nil)
)
