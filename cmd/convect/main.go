/*
Copyright © 2026 the Convect authors.
This file is part of Convect.

Convect is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Convect is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Convect.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command convect is a command-line interface for the Convect rotating
// convection model.
package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thermalmodel/convect/convectutil"
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
}

func main() {
	if err := convectutil.Root.Execute(); err != nil {
		logrus.WithError(err).Error("run failed")
		os.Exit(convectutil.ExitCode(err))
	}
}
