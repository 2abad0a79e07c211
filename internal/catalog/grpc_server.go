package catalog

import (
	"context"
	"encoding/json"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

// The catalog service speaks gRPC with JSON message bodies so the messages
// can be plain Go structs shared by client and server.
const (
	codecName            = "json"
	serviceName          = "hopyfy.catalog.v1.CatalogService"
	getProductsMethod    = "/" + serviceName + "/GetProducts"
	MaxProductsPerLookup = 500
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type GetProductsRequest struct {
	IDs []string `json:"ids"`
}

type GetProductsResponse struct {
	Products []domain.Product `json:"products"`
}

// CatalogServer is the server side of the catalog service.
type CatalogServer interface {
	GetProducts(ctx context.Context, req *GetProductsRequest) (*GetProductsResponse, error)
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetProducts",
			Handler:    getProductsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog.json",
}

func getProductsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetProductsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).GetProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getProductsMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).GetProducts(ctx, req.(*GetProductsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Server exposes a Reader over gRPC.
type Server struct {
	reader Reader
}

func NewServer(reader Reader) *Server {
	return &Server{reader: reader}
}

func (s *Server) GetProducts(ctx context.Context, req *GetProductsRequest) (*GetProductsResponse, error) {
	if len(req.IDs) > MaxProductsPerLookup {
		return nil, status.Errorf(codes.InvalidArgument, "at most %d ids per lookup", MaxProductsPerLookup)
	}

	products, err := s.reader.GetProducts(ctx, req.IDs)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get products: %v", err)
	}

	resp := &GetProductsResponse{Products: make([]domain.Product, 0, len(products))}
	for _, id := range UniqueIDs(req.IDs) {
		if p, ok := products[id]; ok {
			resp.Products = append(resp.Products, p)
		}
	}
	return resp, nil
}
