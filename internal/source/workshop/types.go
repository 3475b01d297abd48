package workshop

import "encoding/json"

// Steam Web API envelope: every endpoint wraps its payload in "response"
// with a result code (1 = OK) and a result count.

type publishedFileDetailsResponse struct {
	Response struct {
		Result               int                   `json:"result"`
		ResultCount          int                   `json:"resultcount"`
		PublishedFileDetails []publishedFileDetail `json:"publishedfiledetails"`
	} `json:"response"`
}

type publishedFileDetail struct {
	PublishedFileID string      `json:"publishedfileid"`
	Result          int         `json:"result"`
	Creator         string      `json:"creator"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	PreviewURL      string      `json:"preview_url"`
	FileSize        json.Number `json:"file_size"`
	TimeCreated     int64       `json:"time_created"`
	TimeUpdated     int64       `json:"time_updated"`
	Tags            []struct {
		Tag string `json:"tag"`
	} `json:"tags"`
}

type collectionDetailsResponse struct {
	Response struct {
		Result            int                `json:"result"`
		ResultCount       int                `json:"resultcount"`
		CollectionDetails []collectionDetail `json:"collectiondetails"`
	} `json:"response"`
}

type collectionDetail struct {
	PublishedFileID string `json:"publishedfileid"`
	Result          int    `json:"result"`
	Children        []struct {
		PublishedFileID string `json:"publishedfileid"`
		SortOrder       int    `json:"sortorder"`
		FileType        int    `json:"filetype"`
	} `json:"children"`
}
