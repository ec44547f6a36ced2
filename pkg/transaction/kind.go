// Copyright 2025 walteh LLC
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

package transaction

// 🏷️ Kind tags what an operation does on behalf of the explorer
type Kind int

const (
	KindOpenDirectory Kind = iota
	KindDownloadData
	KindDownloadFile
	KindDownloadThumbnail
	KindUploadFile
	KindCreateDirectory
	KindUpdateFile
	KindUpdateDirectory
	KindLoading
	KindDeleteFile
	KindDeleteDirectory
	KindCopyDirectory
	KindCopyFile
	KindMoveFile
	KindMoveDirectory
	KindSearch
)

var kindNames = map[Kind]string{
	KindOpenDirectory:     "open_directory",
	KindDownloadData:      "download_data",
	KindDownloadFile:      "download_file",
	KindDownloadThumbnail: "download_thumbnail",
	KindUploadFile:        "upload_file",
	KindCreateDirectory:   "create_directory",
	KindUpdateFile:        "update_file",
	KindUpdateDirectory:   "update_directory",
	KindLoading:           "loading",
	KindDeleteFile:        "delete_file",
	KindDeleteDirectory:   "delete_directory",
	KindCopyDirectory:     "copy_directory",
	KindCopyFile:          "copy_file",
	KindMoveFile:          "move_file",
	KindMoveDirectory:     "move_directory",
	KindSearch:            "search",
}

// String returns a string representation of Kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// 📦 IsDataTransfer reports whether byte progress is meaningful for this kind
func (k Kind) IsDataTransfer() bool {
	switch k {
	case KindDownloadFile, KindCopyFile, KindUploadFile:
		return true
	default:
		return false
	}
}

// 📊 State is the lifecycle position of an operation
type State int

const (
	StateCreated State = iota
	StateQueued
	StateStarted
	StateCompleted
)

// String returns a string representation of State
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateQueued:
		return "queued"
	case StateStarted:
		return "started"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
