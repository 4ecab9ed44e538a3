// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines FSInfo, which ties a parsed descriptor back to its source
// file. Error messages about collisions name the file and line of both
// declarations, and the generated index records the same path.
package model

type FSInfo struct {
	FilePath string
}

func NewFSInfo(filePath string) *FSInfo {
	return &FSInfo{
		FilePath: filePath,
	}
}
