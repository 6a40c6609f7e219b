package main

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen)
	warning = color.New(color.FgYellow)
	failure = color.New(color.FgRed)
)

const helpString = `Usage: mediasource-probe [OPTION]...

Devices:
  -l, --list             List devices and their capabilities, then exit
  -m, --max-width        Pick the environment facing camera with the greatest width
  -f, --facing=MODE      Preferred facing mode, or MODE,MODE to accept
                         only those (default: environment)
  -d, --device=ID        Exact device id
  -x, --width=NUM        Preferred width
  -y, --height=NUM       Preferred height

Output:
  -o, --snapshot=FILE    Write the first frame to a JPEG file
  -t, --timeout=DURATION Give up waiting for the camera (default: 10s)

Miscellaneous:
  -h, --help             Prints this help message and exits`

func help() {
	heading.Println("mediasource-probe")
	fmt.Println(helpString)
}
