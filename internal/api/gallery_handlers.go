package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/elephoto/elephoto-server/internal/service"
)

func (s *Server) registerGalleryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGalleryPhotos",
		Method:      http.MethodGet,
		Path:        "/api/v1/gallery/photos",
		Summary:     "List album photos",
		Description: "Lists the watermarked photos of the album unlocked by this session",
		Tags:        []string{"Gallery"},
	}, handle(s.handleListGalleryPhotos))
}

// GalleryPhotoResponse is a photo as shown in the gallery.
type GalleryPhotoResponse struct {
	ID          string `json:"id" doc:"Photo ID"`
	DisplayURL  string `json:"display_url" doc:"Watermarked display copy"`
	BlurHash    string `json:"blur_hash,omitempty" doc:"Placeholder while the display copy loads"`
	ListPrice   string `json:"list_price" doc:"Stored list price, informational"`
	Paid        bool   `json:"paid" doc:"Whether the photo has been bought"`
	Purchasable bool   `json:"purchasable" doc:"Whether an original exists to buy"`
	InCart      bool   `json:"in_cart" doc:"Whether the photo is in this session's cart"`
	DownloadURL string `json:"download_url,omitempty" doc:"Original download, once paid"`
}

// GalleryResponse is the photo listing of the active album.
type GalleryResponse struct {
	Photos []GalleryPhotoResponse `json:"photos" doc:"Photos of the active album"`
}

// GalleryOutput wraps the gallery response for Huma.
type GalleryOutput struct {
	Body GalleryResponse
}

func (s *Server) handleListGalleryPhotos(ctx context.Context, _ *struct{}) (*GalleryOutput, error) {
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}

	photos, err := s.services.Access.ListPhotos(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp := GalleryResponse{Photos: make([]GalleryPhotoResponse, len(photos))}
	for i, p := range photos {
		resp.Photos[i] = galleryPhotoResponse(p)
	}
	return &GalleryOutput{Body: resp}, nil
}

func galleryPhotoResponse(p service.GalleryPhoto) GalleryPhotoResponse {
	return GalleryPhotoResponse{
		ID:          p.ID,
		DisplayURL:  p.DisplayURL,
		BlurHash:    p.BlurHash,
		ListPrice:   p.ListPrice,
		Paid:        p.Paid,
		Purchasable: p.Purchasable,
		InCart:      p.InCart,
		DownloadURL: p.DownloadURL,
	}
}
