package main

import (
	"log"
	"os"

	dig_container "github.com/trezcool/marksheet/apps/api/di/dig"
	"github.com/trezcool/marksheet/core"
	"github.com/trezcool/marksheet/core/marksheet"
)

func main() {
	c := dig_container.New()

	var code int
	err := c.Invoke(func(svc *marksheet.Service, logger core.Logger) {
		cli := commandLine{svc: svc, out: os.Stdout}
		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				logger.Error("admin command failed", err, map[string]interface{}{"args": os.Args[1:]})
			}
			code = 1
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}
