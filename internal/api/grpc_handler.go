package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"product-catalog-api/internal/domain"
)

// Internal read-only catalog surface. Messages are google.protobuf.Struct so
// the service needs no generated code; field names match the REST JSON.
const (
	ProductCatalogServiceName = "catalog.v1.ProductCatalog"
	GetProductMethod          = "/" + ProductCatalogServiceName + "/GetProduct"
	ListProductsMethod        = "/" + ProductCatalogServiceName + "/ListProducts"
)

// ProductCatalogServer is the server API for catalog.v1.ProductCatalog.
type ProductCatalogServer interface {
	GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var productCatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: ProductCatalogServiceName,
	HandlerType: (*ProductCatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProduct", Handler: unaryStructHandler(GetProductMethod, ProductCatalogServer.GetProduct)},
		{MethodName: "ListProducts", Handler: unaryStructHandler(ListProductsMethod, ProductCatalogServer.ListProducts)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/product_catalog.proto",
}

// RegisterProductCatalogServer registers srv on s.
func RegisterProductCatalogServer(s grpc.ServiceRegistrar, srv ProductCatalogServer) {
	s.RegisterService(&productCatalogServiceDesc, srv)
}

// structMethodHandler matches grpc.MethodDesc.Handler.
type structMethodHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)

func unaryStructHandler(fullMethod string, call func(ProductCatalogServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) structMethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ProductCatalogServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ProductCatalogServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GRPCHandler implements ProductCatalogServer on top of the product service.
type GRPCHandler struct {
	products ProductServicer
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(products ProductServicer) *GRPCHandler {
	return &GRPCHandler{products: products}
}

func mapServiceErrorToGrpcStatus(err error, op string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "product not found")
	case errors.Is(err, domain.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		log.Printf("WARN: gRPC %s unavailable: %v", op, err)
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	default:
		log.Printf("ERROR: gRPC %s failed: %v", op, err)
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *GRPCHandler) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := int64Field(req, "id")
	if err != nil || id == nil || *id <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id must be a positive integer")
	}
	log.Printf("INFO: Received gRPC GetProduct request for ID: %d", *id)

	product, err := s.products.GetActiveByID(ctx, *id)
	if err != nil {
		return nil, mapServiceErrorToGrpcStatus(err, "GetProduct")
	}
	return structpb.NewStruct(productFields(*product))
}

// ListProducts takes {cursor, limit, sortDir, category, name, active}; all
// optional. Unlike REST, an out of range limit is rejected.
func (s *GRPCHandler) ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := domain.DefaultLimit
	rawLimit, err := int64Field(req, "limit")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if rawLimit != nil {
		limit = int(*rawLimit)
	}

	query, err := domain.NewPaginationQuery(stringField(req, "cursor"), limit, "", derefOr(stringField(req, "sortDir"), ""))
	if err != nil {
		return nil, mapServiceErrorToGrpcStatus(err, "ListProducts")
	}

	var active *bool
	if v, ok := req.GetFields()["active"]; ok {
		b, isBool := v.GetKind().(*structpb.Value_BoolValue)
		if !isBool {
			return nil, status.Error(codes.InvalidArgument, "active must be a boolean")
		}
		active = &b.BoolValue
	}
	filter := domain.NewProductFilter(stringField(req, "category"), stringField(req, "name"), active)

	page, err := s.products.GetAllActive(ctx, query, filter)
	if err != nil {
		return nil, mapServiceErrorToGrpcStatus(err, "ListProducts")
	}

	content := make([]interface{}, 0, len(page.Content))
	for _, p := range page.Content {
		content = append(content, productFields(p))
	}
	fields := map[string]interface{}{
		"content":     content,
		"hasNext":     page.HasNext,
		"hasPrevious": page.HasPrevious,
		"size":        page.Size,
		"limit":       page.Limit,
	}
	if page.NextCursor != nil {
		fields["nextCursor"] = *page.NextCursor
	}
	if page.PreviousCursor != nil {
		fields["previousCursor"] = *page.PreviousCursor
	}
	return structpb.NewStruct(fields)
}

func productFields(p domain.Product) map[string]interface{} {
	r := toProductResponse(p)
	return map[string]interface{}{
		"id":       r.ID,
		"name":     r.Name,
		"price":    r.Price,
		"category": r.Category,
		"active":   r.Active,
	}
}

func stringField(s *structpb.Struct, key string) *string {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil
	}
	return &str.StringValue
}

// int64Field accepts a whole number or a decimal string. Absent keys yield nil.
func int64Field(s *structpb.Struct, key string) (*int64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return nil, fmt.Errorf("%s must be a whole number", key)
		}
		i := int64(n)
		return &i, nil
	case *structpb.Value_StringValue:
		i, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number", key)
		}
		return &i, nil
	default:
		return nil, fmt.Errorf("%s must be a whole number", key)
	}
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
