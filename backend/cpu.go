package backend

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

type cpu struct{}

type cpuDense struct {
	m *mat.CDense
}

func (d *cpuDense) Dims() (int, int)        { return d.m.Dims() }
func (d *cpuDense) At(i, j int) complex128 { return d.m.At(i, j) }
func (d *cpuDense) Backend() Name          { return CPU }

func (d *cpuDense) Data() []complex128 {
	raw := d.m.RawCMatrix()
	out := make([]complex128, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		copy(out[i*raw.Cols:(i+1)*raw.Cols], raw.Data[i*raw.Stride:i*raw.Stride+raw.Cols])
	}
	return out
}

func (cpu) Name() Name { return CPU }

func (cpu) New(r, c int, data []complex128) Dense {
	if data == nil {
		return &cpuDense{m: mat.NewCDense(r, c, nil)}
	}
	buf := make([]complex128, len(data))
	copy(buf, data)
	return &cpuDense{m: mat.NewCDense(r, c, buf)}
}

func (b cpu) Zeros(r, c int) Dense {
	return b.New(r, c, nil)
}

func (cpu) Identity(n int) Dense {
	m := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return &cpuDense{m: m}
}

func (b cpu) Import(d Dense) Dense {
	if cd, ok := d.(*cpuDense); ok {
		return cd
	}
	r, c := d.Dims()
	return &cpuDense{m: mat.NewCDense(r, c, d.Data())}
}

func (b cpu) raw(d Dense) cblas128.General {
	return b.Import(d).(*cpuDense).m.RawCMatrix()
}

func (b cpu) Kron(x, y Dense) Dense {
	a, c := b.raw(x), b.raw(y)
	rows, cols := a.Rows*c.Rows, a.Cols*c.Cols
	out := make([]complex128, rows*cols)
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < a.Cols; j++ {
			v := a.Data[i*a.Stride+j]
			if v == 0 {
				continue
			}
			for k := 0; k < c.Rows; k++ {
				dst := out[(i*c.Rows+k)*cols+j*c.Cols:]
				src := c.Data[k*c.Stride : k*c.Stride+c.Cols]
				for l, w := range src {
					dst[l] = v * w
				}
			}
		}
	}
	return &cpuDense{m: mat.NewCDense(rows, cols, out)}
}

func (b cpu) MatMul(x, y Dense) (Dense, error) {
	r, _, c, err := checkMul(x, y)
	if err != nil {
		return nil, err
	}
	out := mat.NewCDense(r, c, nil)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, b.raw(x), b.raw(y), 0, out.RawCMatrix())
	return &cpuDense{m: out}, nil
}

func (b cpu) Add(x, y Dense) (Dense, error) {
	r, c, err := checkSame(x, y)
	if err != nil {
		return nil, err
	}
	a, d := b.raw(x), b.raw(y)
	out := make([]complex128, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i*c+j] = a.Data[i*a.Stride+j] + d.Data[i*d.Stride+j]
		}
	}
	return &cpuDense{m: mat.NewCDense(r, c, out)}, nil
}
