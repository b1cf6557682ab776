package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PrimozLavric/LogiPathTracer/gpu/vulkan"
	"github.com/PrimozLavric/LogiPathTracer/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List available vulkan devices.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	devices, err := vulkan.Devices()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Index", "Name", "Type", "API", "Driver", "Device memory"})
	for _, dev := range devices {
		var heaps []string
		for i, size := range dev.Heaps {
			if dev.DeviceLocal[i] {
				heaps = append(heaps, strings.TrimSpace(scene.FormatBytes(int(size))))
			}
		}
		table.Append([]string{
			fmt.Sprintf("%d", dev.Index),
			dev.Name,
			dev.Type,
			dev.APIVersion,
			fmt.Sprintf("%#x", dev.Driver),
			strings.Join(heaps, ", "),
		})
	}
	table.Render()

	logger.Noticef("system provides %d vulkan device(s)\n%s", len(devices), buf.String())
	return nil
}
