// Package types contains shared type definitions used across the mongoauth demos.
package types

import "time"

// DatabaseInfo describes a MongoDB database.
type DatabaseInfo struct {
	Name       string `json:"name"`
	SizeOnDisk int64  `json:"sizeOnDisk"`
	Empty      bool   `json:"empty"`
}

// CollectionInfo describes a MongoDB collection.
type CollectionInfo struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// CollectionStats holds the subset of collStats output the demos display.
type CollectionStats struct {
	Namespace   string `json:"namespace"`
	Count       int64  `json:"count"`
	Size        int64  `json:"size"`
	StorageSize int64  `json:"storageSize"`
	AvgObjSize  int64  `json:"avgObjSize"`
	IndexCount  int64  `json:"indexCount"`
}

// OperationLog records the fixed sequence of steps one demonstration run
// performs, either against a live server or from the simulated dataset.
// It is display data only; nothing persists it.
type OperationLog struct {
	Mechanism        string           `json:"mechanism"`
	Simulated        bool             `json:"simulated"`
	StartedAt        time.Time        `json:"startedAt"`
	Databases        []DatabaseInfo   `json:"databases"`
	Collections      []CollectionInfo `json:"collections"`
	InsertedID       string           `json:"insertedId"`
	InsertedDocument map[string]any   `json:"insertedDocument"`
	Samples          []map[string]any `json:"samples"`
	Stats            *CollectionStats `json:"stats,omitempty"`
}
