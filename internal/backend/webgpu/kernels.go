package webgpu

import "strings"

// The kernels are written against a SCALAR placeholder and rendered once per
// precision. The f64 render only compiles on native drivers with 64-bit
// float support.
func renderKernel(template string, p Precision) string {
	return strings.ReplaceAll(template, "SCALAR", p.scalar())
}

func kernelName(base string, p Precision) string {
	return base + "_" + p.scalar()
}

// kernelPrelude holds the complex and Legendre helpers shared by both
// kernels. Complex numbers are vec2 (re, im); vec2 + and scalar * already
// behave as complex addition and real scaling.
const kernelPrelude = `
fn cmul(a: vec2<SCALAR>, b: vec2<SCALAR>) -> vec2<SCALAR> {
    return vec2<SCALAR>(a.x * b.x - a.y * b.y, a.x * b.y + a.y * b.x);
}

fn cdiv(a: vec2<SCALAR>, b: vec2<SCALAR>) -> vec2<SCALAR> {
    let d = b.x * b.x + b.y * b.y;
    return vec2<SCALAR>((a.x * b.x + a.y * b.y) / d, (a.y * b.x - a.x * b.y) / d);
}

fn expi(t: SCALAR) -> vec2<SCALAR> {
    return vec2<SCALAR>(cos(t), sin(t));
}

// jpow returns i^k for k >= 0.
fn jpow(k: i32) -> vec2<SCALAR> {
    let r = k % 4;
    if (r == 0) { return vec2<SCALAR>(1.0, 0.0); }
    if (r == 1) { return vec2<SCALAR>(0.0, 1.0); }
    if (r == 2) { return vec2<SCALAR>(-1.0, 0.0); }
    return vec2<SCALAR>(0.0, -1.0);
}

// legendre returns P_n^m(u), Condon-Shortley phase included, via the
// three-term recurrence. Orders above n are zero.
fn legendre(n: i32, m: i32, u: SCALAR) -> SCALAR {
    if (m > n) { return SCALAR(0); }
    let somx2 = sqrt((SCALAR(1) - u) * (SCALAR(1) + u));
    var pmm = SCALAR(1);
    for (var k: i32 = 1; k <= m; k = k + 1) {
        pmm = pmm * SCALAR(-(2 * k - 1)) * somx2;
    }
    if (m == n) { return pmm; }
    var prev = pmm;
    var cur = u * SCALAR(2 * m + 1) * pmm;
    for (var nn: i32 = m + 2; nn <= n; nn = nn + 1) {
        let next = (u * SCALAR(2 * nn - 1) * cur - SCALAR(nn + m - 1) * prev) / SCALAR(nn - m);
        prev = cur;
        cur = next;
    }
    return cur;
}

// p_over_sin returns P_n^m(cos za)/sin(za) with its pole limits: zero for
// every order except m = 1.
fn p_over_sin(n: i32, am: i32, u: SCALAR, sin_za: SCALAR) -> SCALAR {
    if (abs(sin_za) < SCALAR(1e-6)) {
        if (am != 1) { return SCALAR(0); }
        let lim = SCALAR(n * (n + 1)) / SCALAR(2);
        if (u > SCALAR(0)) { return -lim; }
        if (n % 2 == 0) { return lim; }
        return -lim;
    }
    return legendre(n, am, u) / sin_za;
}

// parallactic_rotation returns (cos, sin) of the parallactic angle plus pi/2
// for a horizon direction and observer latitude.
fn parallactic_rotation(az: SCALAR, za: SCALAR, lat: SCALAR) -> vec2<SCALAR> {
    let el = SCALAR(1.5707963267948966) - za;
    let s_el = sin(el);
    let c_el = cos(el);
    let s_lat = sin(lat);
    let c_lat = cos(lat);
    let dec = asin(s_el * s_lat + c_el * c_lat * cos(az));
    let ha = atan2(-sin(az) * c_el, c_lat * s_el - s_lat * c_el * cos(az));
    let pa = atan2(c_lat * sin(ha), s_lat * cos(dec) - c_lat * sin(dec) * cos(ha));
    let r = pa + SCALAR(1.5707963267948966);
    return vec2<SCALAR>(cos(r), sin(r));
}
`

// feeKernel synthesizes the spherical-harmonic beam. One thread owns one
// (direction, unique tile, unique freq) triple; set s = tile*num_freqs + freq
// selects the mode runs through spans = [x_off, x_len, y_off, y_len] per set.
// Output layout matches the CPU batch: jones (set*num_dirs + dir), eight
// scalars each.
const feeKernel = kernelPrelude + `
struct Params {
    num_dirs: u32,
    num_tiles: u32,
    num_freqs: u32,
    norm: u32,
    para: u32,
    iau: u32,
    _pad0: u32,
    _pad1: u32,
    latitude: SCALAR,
}

@group(0) @binding(0) var<storage, read> dirs: array<SCALAR>;
@group(0) @binding(1) var<storage, read> modes_m: array<i32>;
@group(0) @binding(2) var<storage, read> modes_n: array<i32>;
@group(0) @binding(3) var<storage, read> q1: array<vec2<SCALAR>>;
@group(0) @binding(4) var<storage, read> q2: array<vec2<SCALAR>>;
@group(0) @binding(5) var<storage, read> spans: array<i32>;
@group(0) @binding(6) var<storage, read> norms: array<SCALAR>;
@group(0) @binding(7) var<storage, read_write> out: array<SCALAR>;
@group(0) @binding(8) var<uniform> params: Params;

struct Sigma {
    t: vec2<SCALAR>,
    p: vec2<SCALAR>,
}

fn accumulate(offset: i32, length: i32, phi: SCALAR, u: SCALAR, sin_za: SCALAR) -> Sigma {
    var st = vec2<SCALAR>(0.0, 0.0);
    var sp = vec2<SCALAR>(0.0, 0.0);
    for (var i: i32 = offset; i < offset + length; i = i + 1) {
        let m = modes_m[i];
        let n = modes_n[i];
        var am = m;
        if (am < 0) { am = -am; }
        let ps = p_over_sin(n, am, u, sin_za);
        let pp = legendre(n, am + 1, u);
        let c1 = q1[i];
        let c2 = q2[i];
        let e_theta = cmul(jpow(n), (SCALAR(am) * u * c2 - SCALAR(m) * c1) * ps + c2 * pp);
        let e_phi = cmul(jpow(n + 1), (SCALAR(m) * c2 - SCALAR(am) * u * c1) * ps - c1 * pp);
        let phase = expi(SCALAR(m) * phi);
        st = st + cmul(phase, e_theta);
        sp = sp + cmul(phase, e_phi);
    }
    return Sigma(st, sp);
}

@compute @workgroup_size(64, 1, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let dir = gid.x;
    if (dir >= params.num_dirs || gid.y >= params.num_tiles || gid.z >= params.num_freqs) {
        return;
    }
    let set = gid.y * params.num_freqs + gid.z;

    let az = dirs[2u * dir];
    let za = dirs[2u * dir + 1u];
    let phi = SCALAR(1.5707963267948966) - az;
    let u = cos(za);
    let s_za = sin(za);

    let base = i32(4u * set);
    let x = accumulate(spans[base], spans[base + 1], phi, u, s_za);
    let y = accumulate(spans[base + 2], spans[base + 3], phi, u, s_za);
    var j0 = x.t;
    var j1 = x.p;
    var j2 = y.t;
    var j3 = y.p;

    if (params.norm != 0u) {
        let nb = 8u * set;
        let n0 = vec2<SCALAR>(norms[nb], norms[nb + 1u]);
        let n1 = vec2<SCALAR>(norms[nb + 2u], norms[nb + 3u]);
        let n2 = vec2<SCALAR>(norms[nb + 4u], norms[nb + 5u]);
        let n3 = vec2<SCALAR>(norms[nb + 6u], norms[nb + 7u]);
        if (n0.x != SCALAR(0) || n0.y != SCALAR(0)) { j0 = cdiv(j0, n0); }
        if (n1.x != SCALAR(0) || n1.y != SCALAR(0)) { j1 = cdiv(j1, n1); }
        if (n2.x != SCALAR(0) || n2.y != SCALAR(0)) { j2 = cdiv(j2, n2); }
        if (n3.x != SCALAR(0) || n3.y != SCALAR(0)) { j3 = cdiv(j3, n3); }
    }
    if (params.para != 0u) {
        let cs = parallactic_rotation(az, za, params.latitude);
        let r0 = j0 * cs.x + j1 * cs.y;
        let r1 = j1 * cs.x - j0 * cs.y;
        let r2 = j2 * cs.x + j3 * cs.y;
        let r3 = j3 * cs.x - j2 * cs.y;
        j0 = r0;
        j1 = r1;
        j2 = r2;
        j3 = r3;
    }
    if (params.iau != 0u) {
        let t0 = j0;
        let t1 = j1;
        j0 = j3;
        j1 = j2;
        j2 = t1;
        j3 = t0;
    }

    let ob = 8u * (set * params.num_dirs + dir);
    out[ob] = j0.x;
    out[ob + 1u] = j0.y;
    out[ob + 2u] = j1.x;
    out[ob + 3u] = j1.y;
    out[ob + 4u] = j2.x;
    out[ob + 5u] = j2.y;
    out[ob + 6u] = j3.x;
    out[ob + 7u] = j3.y;
}
`

// analyticKernel computes the closed-form beam. tiles packs 48 scalars per
// unique tile: 16 delay steps, 16 X amplitudes, 16 Y amplitudes. variant 0 is
// the horizon-frame element pattern, 1 the equatorial one.
const analyticKernel = kernelPrelude + `
struct Params {
    num_dirs: u32,
    num_tiles: u32,
    num_freqs: u32,
    variant: u32,
    norm: u32,
    para: u32,
    iau: u32,
    _pad: u32,
    height: SCALAR,
    latitude: SCALAR,
}

@group(0) @binding(0) var<storage, read> dirs: array<SCALAR>;
@group(0) @binding(1) var<storage, read> tiles: array<SCALAR>;
@group(0) @binding(2) var<storage, read> freqs: array<SCALAR>;
@group(0) @binding(3) var<storage, read_write> out: array<SCALAR>;
@group(0) @binding(4) var<uniform> params: Params;

const TAU: SCALAR = SCALAR(6.283185307179586);
const DELAY_STEP: SCALAR = SCALAR(4.35e-10);
const SEPARATION: SCALAR = SCALAR(1.1);
const RTS_LATITUDE: SCALAR = SCALAR(-0.4660608448386394);

fn array_factor(tb: u32, pol: u32, freq: SCALAR, k: SCALAR, proj_e: SCALAR, proj_n: SCALAR) -> vec2<SCALAR> {
    let ab = tb + 16u + 16u * pol;
    var af = vec2<SCALAR>(0.0, 0.0);
    for (var d: u32 = 0u; d < 16u; d = d + 1u) {
        let amp = tiles[ab + d];
        if (amp == SCALAR(0)) { continue; }
        let east = (SCALAR(i32(d % 4u)) - SCALAR(1.5)) * SEPARATION;
        let north = (SCALAR(1.5) - SCALAR(i32(d / 4u))) * SEPARATION;
        let phase = k * (east * proj_e + north * proj_n) - TAU * freq * DELAY_STEP * tiles[tb + d];
        af = af + amp * expi(phase);
    }
    return af;
}

fn element_pattern(variant: u32, az: SCALAR, za: SCALAR) -> vec4<SCALAR> {
    if (variant == 1u) {
        let el = SCALAR(1.5707963267948966) - za;
        let s_el = sin(el);
        let c_el = cos(el);
        let s_lat = sin(RTS_LATITUDE);
        let c_lat = cos(RTS_LATITUDE);
        let dec = asin(s_el * s_lat + c_el * c_lat * cos(az));
        let ha = atan2(-sin(az) * c_el, c_lat * s_el - s_lat * c_el * cos(az));
        return vec4<SCALAR>(
            c_lat * cos(dec) + s_lat * sin(dec) * cos(ha),
            -s_lat * sin(ha),
            sin(dec) * sin(ha),
            cos(ha));
    }
    let c_za = cos(za);
    return vec4<SCALAR>(c_za * sin(az), cos(az), c_za * cos(az), -sin(az));
}

@compute @workgroup_size(64, 1, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let dir = gid.x;
    if (dir >= params.num_dirs || gid.y >= params.num_tiles || gid.z >= params.num_freqs) {
        return;
    }
    let set = gid.y * params.num_freqs + gid.z;
    let tb = 48u * gid.y;
    let freq = freqs[gid.z];

    let az = dirs[2u * dir];
    let za = dirs[2u * dir + 1u];
    let lambda = SCALAR(299792458.0) / freq;
    let k = TAU / lambda;
    let s_za = sin(za);
    let proj_e = s_za * sin(az);
    let proj_n = s_za * cos(az);

    let af_x = array_factor(tb, 0u, freq, k, proj_e, proj_n);
    let af_y = array_factor(tb, 1u, freq, k, proj_e, proj_n);
    let gp = SCALAR(2) * sin(TAU * params.height / lambda * cos(za));
    let ep = element_pattern(params.variant, az, za);

    var j0 = af_x * (ep.x * gp);
    var j1 = af_x * (ep.y * gp);
    var j2 = af_y * (ep.z * gp);
    var j3 = af_y * (ep.w * gp);

    if (params.norm != 0u) {
        let gp0 = abs(SCALAR(2) * sin(TAU * params.height / lambda));
        let zx = array_factor(tb, 0u, freq, k, SCALAR(0), SCALAR(0));
        let zy = array_factor(tb, 1u, freq, k, SCALAR(0), SCALAR(0));
        let nx = gp0 * length(zx);
        let ny = gp0 * length(zy);
        if (nx != SCALAR(0)) {
            j0 = j0 / nx;
            j1 = j1 / nx;
        }
        if (ny != SCALAR(0)) {
            j2 = j2 / ny;
            j3 = j3 / ny;
        }
    }
    if (params.para != 0u) {
        let cs = parallactic_rotation(az, za, params.latitude);
        let r0 = j0 * cs.x + j1 * cs.y;
        let r1 = j1 * cs.x - j0 * cs.y;
        let r2 = j2 * cs.x + j3 * cs.y;
        let r3 = j3 * cs.x - j2 * cs.y;
        j0 = r0;
        j1 = r1;
        j2 = r2;
        j3 = r3;
    }
    if (params.iau != 0u) {
        let t0 = j0;
        let t1 = j1;
        j0 = j3;
        j1 = j2;
        j2 = t1;
        j3 = t0;
    }

    let ob = 8u * (set * params.num_dirs + dir);
    out[ob] = j0.x;
    out[ob + 1u] = j0.y;
    out[ob + 2u] = j1.x;
    out[ob + 3u] = j1.y;
    out[ob + 4u] = j2.x;
    out[ob + 5u] = j2.y;
    out[ob + 6u] = j3.x;
    out[ob + 7u] = j3.y;
}
`
