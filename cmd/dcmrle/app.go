// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/knadh/koanf"
	"github.com/spf13/cobra"
	"github.com/zerodha/logf"

	"github.com/nagayev/GDCM/dicom"
)

// App holds the configuration and logger shared by the commands.
type App struct {
	ko *koanf.Koanf
	lo logf.Logger
}

func newApp() *App {
	return &App{}
}

func newRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "dcmrle",
		Short:         "Decode RLE Lossless pixel data and curves of DICOM files",
		Version:       buildString,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ko, err := initConfig(cmd.Flags())
			if err != nil {
				return err
			}
			app.ko = ko
			app.lo = initLogger(ko, cmd.ErrOrStderr())
			return nil
		},
	}
	registerFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "frames <file>",
			Short: "Decode every frame and write it to the output directory",
			Args:  cobra.ExactArgs(1),
			RunE:  app.runE(app.frames),
		},
		&cobra.Command{
			Use:   "curves <file>",
			Short: "Print the curves of the file as JSON",
			Args:  cobra.ExactArgs(1),
			RunE:  app.runE(app.curves),
		},
		&cobra.Command{
			Use:   "header <file>",
			Short: "Print the RLE header of every frame",
			Args:  cobra.ExactArgs(1),
			RunE:  app.runE(app.header),
		},
	)
	return root
}

// runE parses the file named by the single argument and hands it to run. Errors are logged
// before being returned to cobra.
func (app *App) runE(run func(cmd *cobra.Command, ds *dicom.DataSet) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ds, err := app.parse(args[0])
		if err == nil {
			err = run(cmd, ds)
		}
		if err != nil {
			app.lo.Error("command failed", "command", cmd.Name(), "file", args[0], "error", err)
		}
		return err
	}
}

func (app *App) parse(path string) (*dicom.DataSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := dicom.Parse(f, dicom.WithParseLogger(app.lo))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ds, nil
}

func (app *App) frames(cmd *cobra.Command, ds *dicom.DataSet) error {
	order, err := byteOrder(app.ko)
	if err != nil {
		return err
	}
	frames, decodeErr := dicom.DecodeFrames(ds, dicom.WithLogger(app.lo), dicom.WithByteOrder(order))
	if frames == nil {
		return decodeErr
	}

	dir := app.ko.String("output.dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, frame := range frames {
		if frame == nil {
			app.lo.Error("skipped frame", "frame", i)
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("frame-%04d.raw", i))
		if err := os.WriteFile(name, frame, 0o644); err != nil {
			return fmt.Errorf("writing frame %d: %w", i, err)
		}
		fields := []interface{}{"frame", i, "file", name, "bytes", len(frame)}
		if app.ko.Bool("output.digest") {
			fields = append(fields, "xxhash", fmt.Sprintf("%016x", xxhash.Sum64(frame)))
		}
		app.lo.Info("wrote frame", fields...)
	}
	return decodeErr
}

// byteOrder returns the byte order of the RLE headers named by rle.byte_order
func byteOrder(ko *koanf.Koanf) (binary.ByteOrder, error) {
	switch v := ko.String("rle.byte_order"); v {
	case "little":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("unknown rle.byte_order %q, want little or big", v)
	}
}

type curveJSON struct {
	Group            string    `json:"group"`
	Dimensions       uint16    `json:"dimensions"`
	NumberOfPoints   uint16    `json:"number_of_points"`
	TypeOfData       string    `json:"type_of_data"`
	CurveDescription string    `json:"description,omitempty"`
	AxisUnits        []string  `json:"axis_units,omitempty"`
	CurveLabel       string    `json:"label,omitempty"`
	Values           []float64 `json:"values"`
}

func (app *App) curves(cmd *cobra.Command, ds *dicom.DataSet) error {
	curves, err := dicom.ReadCurves(ds, dicom.WithLogger(app.lo))
	if err != nil {
		return err
	}

	out := make([]curveJSON, 0, len(curves))
	for _, c := range curves {
		values, err := c.Values()
		if err != nil {
			return fmt.Errorf("curve group %04X: %w", c.Group(), err)
		}
		out = append(out, curveJSON{
			Group:            fmt.Sprintf("%04X", c.Group()),
			Dimensions:       c.Dimensions,
			NumberOfPoints:   c.NumberOfPoints,
			TypeOfData:       c.TypeOfData,
			CurveDescription: c.CurveDescription,
			AxisUnits:        c.AxisUnits,
			CurveLabel:       c.CurveLabel,
			Values:           values,
		})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (app *App) header(cmd *cobra.Command, ds *dicom.DataSet) error {
	layout, err := dicom.ReadPixelLayout(ds)
	if err != nil {
		return err
	}
	frames, err := dicom.EncapsulatedFrames(ds, layout.NumberOfFrames)
	if err != nil {
		return err
	}
	order, err := byteOrder(app.ko)
	if err != nil {
		return err
	}
	for i, frame := range frames {
		h, err := dicom.ReadRLEHeader(bytes.NewReader(frame), order)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "frame %d: %d segments at %v\n", i, h.NumSegments, h.SegmentOffsets())
	}
	return nil
}
