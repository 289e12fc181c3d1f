// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging configures log/slog for cpuctl and cpumapd.
//
// Every record is JSON on stderr and carries the binary name as "module"
// and its build version as "version". Debug level also records the source
// location.
//
// Levels are parsed case-insensitively from debug, info, warn (or warning)
// and error. Anything else, and an unset LOG_LEVEL, means info.
//
//	logging.SetDefaultStructuredLogger("cpumapd", version)
//	slog.Info("loaded cpu map", "models", n)
//
// cpuctl takes the level from --log-level instead:
//
//	logging.SetDefaultStructuredLoggerWithLevel("cpuctl", version, cmd.String("log-level"))
//
// NewLogLogger adapts the default slog handler for APIs that still want a
// *log.Logger, such as http.Server.ErrorLog.
//
// Core packages only log at debug, for example when a malformed CPU map
// record is skipped or a PVR falls back to its generation match.
package logging
